package skill

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

// Prompts are the spoken texts of the skill.
type Prompts struct {
	Welcome       string `yaml:"welcome"`
	Reprompt      string `yaml:"reprompt"`
	Followup      string `yaml:"followup"`
	RepromptEmail string `yaml:"reprompt_email"`
	Confirmation1 string `yaml:"confirmation1"`
	Confirmation2 string `yaml:"confirmation2"`
	NoState       string `yaml:"nostate"`
	RepromptState string `yaml:"reprompt_state"`
	Goodbye       string `yaml:"goodbye"`
	Apology       string `yaml:"apology"`
}

// DefaultPrompts returns the embedded prompt texts.
func DefaultPrompts() Prompts {
	var p Prompts
	if err := yaml.Unmarshal(defaultPromptsYAML, &p); err != nil {
		panic(fmt.Sprintf("skill: embedded prompts: %v", err))
	}
	return p
}

// ParsePrompts decodes YAML prompts over the defaults. Keys left out keep their default text.
func ParsePrompts(data []byte) (Prompts, error) {
	p := DefaultPrompts()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Prompts{}, fmt.Errorf("decode prompts: %w", err)
	}
	return p, nil
}

// LoadPrompts reads a prompts file.
func LoadPrompts(path string) (Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Prompts{}, fmt.Errorf("read prompts: %w", err)
	}
	return ParsePrompts(data)
}
