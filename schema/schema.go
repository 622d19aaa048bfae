package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/profitlens/engine"
)

// ============================================================================
// SCHEMA — Describes the shape of a profit dataset
// ============================================================================
// Auto-discovered from CSV headers (discover.go) or hand-written as YAML.
// The helpers package uses it to turn raw rows into engine.Records:
// category columns become Dimensions, period columns become Measures.
// Keys are the source column headers, verbatim ("Business Unit", "2009").
// ============================================================================

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Categories []DimensionMeta `json:"categories" yaml:"categories"`
	Periods    []PeriodMeta    `json:"periods" yaml:"periods"`

	// Cell text meaning "no value" (read as 0). "-" when empty.
	NoValueToken string `json:"noValueToken,omitempty" yaml:"no_value_token,omitempty"`

	// Auto-discovery metadata
	DiscoveredFrom string          `json:"discoveredFrom,omitempty" yaml:"discovered_from,omitempty"`
	DiscoveredAt   string          `json:"discoveredAt,omitempty" yaml:"discovered_at,omitempty"`
	SkippedColumns []SkippedColumn `json:"skippedColumns,omitempty" yaml:"skipped_columns,omitempty"`
}

// DimensionMeta describes a string column used for grouping.
type DimensionMeta struct {
	Key             string   `json:"key" yaml:"key"`
	DisplayName     string   `json:"displayName" yaml:"display_name"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	SampleValues    []string `json:"sampleValues,omitempty" yaml:"sample_values,omitempty"`
	Parent          string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	CardinalityHint string   `json:"cardinalityHint,omitempty" yaml:"cardinality_hint,omitempty"` // "low", "medium", "high"
}

// PeriodMeta describes a numeric column holding one fiscal period's profit.
type PeriodMeta struct {
	Key         string `json:"key" yaml:"key"`
	DisplayName string `json:"displayName" yaml:"display_name"`
	Format      string `json:"format,omitempty" yaml:"format,omitempty"` // "yyyy", "QN-yyyy", "MMM-yyyy"...
	Unit        string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// SkippedColumn records why a column was excluded during auto-discovery.
type SkippedColumn struct {
	Column string `json:"column" yaml:"column"`
	Reason string `json:"reason" yaml:"reason"`
}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid schema")

// DefaultDimension creates a DimensionMeta with sensible defaults.
func DefaultDimension(key string) DimensionMeta {
	return DimensionMeta{Key: key, DisplayName: toDisplayName(key)}
}

// DefaultPeriod creates a PeriodMeta with sensible defaults.
func DefaultPeriod(key string) PeriodMeta {
	return PeriodMeta{Key: key, DisplayName: key, Unit: "currency"}
}

// Superstore is the layout of the sales extracts the voice skill reports on.
func Superstore() Config {
	return Config{
		Name:    "Superstore Sales",
		Version: "1.0",
		Categories: []DimensionMeta{
			DefaultDimension("State"),
			DefaultDimension("Region"),
			DefaultDimension("Business Unit"),
			DefaultDimension("Product Group"),
		},
		Periods: []PeriodMeta{
			DefaultPeriod("2008"),
			DefaultPeriod("2009"),
		},
		NoValueToken: "-",
	}
}

// ============================================================================
// ACCESSORS
// ============================================================================

// CategoryKeys returns all category keys.
func (c Config) CategoryKeys() []string {
	keys := make([]string, len(c.Categories))
	for i, d := range c.Categories {
		keys[i] = d.Key
	}
	return keys
}

// PeriodKeys returns all period keys in declared (chronological) order.
func (c Config) PeriodKeys() []string {
	keys := make([]string, len(c.Periods))
	for i, p := range c.Periods {
		keys[i] = p.Key
	}
	return keys
}


// PeriodPair returns the last two declared periods: prior is the second to last.
func (c Config) PeriodPair() (engine.PeriodPair, error) {
	n := len(c.Periods)
	if n < 2 {
		return engine.PeriodPair{}, fmt.Errorf("%w: need two periods, have %d", engine.ErrInvalidPeriods, n)
	}
	pair := engine.PeriodPair{Prior: c.Periods[n-2].Key, Current: c.Periods[n-1].Key}
	return pair, pair.Validate()
}

// EmptyToken returns the configured "no value" cell text.
func (c Config) EmptyToken() string {
	if c.NoValueToken == "" {
		return "-"
	}
	return c.NoValueToken
}

// ============================================================================
// VALIDATION
// ============================================================================

// Validate checks that the config can drive ingestion. Every problem is reported.
func (c Config) Validate() error {
	var errs []error

	if len(c.Categories) == 0 {
		errs = append(errs, errors.New("no categories declared"))
	}
	if len(c.Periods) < 2 {
		errs = append(errs, fmt.Errorf("need at least two periods, have %d", len(c.Periods)))
	}

	seen := make(map[string]bool)
	for _, k := range append(c.CategoryKeys(), c.PeriodKeys()...) {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, errors.New("empty column key"))
			continue
		}
		if seen[k] {
			errs = append(errs, fmt.Errorf("duplicate column key %q", k))
		}
		seen[k] = true
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// ============================================================================
// LOAD / SAVE
// ============================================================================

// Parse decodes a YAML or JSON schema and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	unmarshal := yaml.Unmarshal
	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		unmarshal = json.Unmarshal
	}
	if err := unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses a schema file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Parse(data)
}

// Marshal encodes the config as JSON for .json paths and YAML otherwise.
func (c Config) Marshal(path string) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.MarshalIndent(c, "", "  ")
	}
	return yaml.Marshal(c)
}

// WithCategories returns a copy of the config declaring only the given categories.
// Unknown keys are added with defaults. Periods are kept.
func (c Config) WithCategories(keys ...string) Config {
	out := c
	out.Categories = make([]DimensionMeta, 0, len(keys))
	for _, k := range keys {
		meta := DefaultDimension(k)
		for _, d := range c.Categories {
			if d.Key == k {
				meta = d
				break
			}
		}
		out.Categories = append(out.Categories, meta)
	}
	out.Periods = append([]PeriodMeta(nil), c.Periods...)
	return out
}
