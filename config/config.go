// Package config loads profitlens settings: a YAML file over defaults, then
// environment overrides for secrets and deployment addresses.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/profitlens/engine"
	"github.com/spektr-org/profitlens/mailer"
	"github.com/spektr-org/profitlens/narrative"
	"github.com/spektr-org/profitlens/report"
	"github.com/spektr-org/profitlens/storage"
	"github.com/spektr-org/profitlens/telemetry"
)

// Data sources.
const (
	SourceDir   = "dir"
	SourceMinIO = "minio"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config is the complete runtime configuration.
type Config struct {
	Data      Data                      `yaml:"data"`
	MinIO     storage.MinIOConfig       `yaml:"minio"`
	Wordsmith narrative.WordsmithConfig `yaml:"wordsmith"`
	Mailgun   mailer.Config             `yaml:"mailgun"`
	Telemetry telemetry.Config          `yaml:"telemetry"`
	Server    Server                    `yaml:"server"`
	Skill     Skill                     `yaml:"skill"`
}

// Data says where the sales extracts live and how to read them.
type Data struct {
	Source   string         `yaml:"source"` // "dir" or "minio"
	Dir      string         `yaml:"dir"`
	Schema   string         `yaml:"schema"` // schema file; empty uses the built-in layout
	Extracts report.Sources `yaml:"extracts"`
	Rounding string         `yaml:"rounding"` // "half_even" or "half_away_from_zero"
}

// Server holds the skill endpoint settings.
type Server struct {
	Addr string `yaml:"addr"`
}

// Skill holds voice skill settings.
type Skill struct {
	Prompts       string `yaml:"prompts"` // prompts file; empty uses the embedded texts
	DashboardBase string `yaml:"dashboard_base"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Data: Data{
			Source:   SourceDir,
			Dir:      ".",
			Extracts: report.DefaultSources(),
			Rounding: "half_even",
		},
		Wordsmith: narrative.WordsmithConfig{
			Endpoint:  narrative.DefaultWordsmithEndpoint,
			UserAgent: "Hackathon",
		},
		Mailgun: mailer.Config{
			BaseURL: mailer.DefaultBaseURL,
			Domain:  mailer.DefaultDomain,
		},
		Telemetry: telemetry.Config{
			ServiceName: "profitlens",
			LogLevel:    "info",
		},
		Server: Server{Addr: ":8080"},
		Skill:  Skill{DashboardBase: report.DefaultDashboardBase},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(&c.Wordsmith.Token, "AI_API")
	set(&c.Mailgun.APIKey, "MAILGUN")
	set(&c.Mailgun.To, "TO_EMAIL")
	set(&c.Mailgun.From, "FROM_EMAIL")
	set(&c.MinIO.Endpoint, "MINIO_ENDPOINT")
	set(&c.MinIO.AccessKey, "MINIO_ACCESS_KEY")
	set(&c.MinIO.SecretKey, "MINIO_SECRET_KEY")
	set(&c.MinIO.Bucket, "MINIO_BUCKET")
	set(&c.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	set(&c.Server.Addr, "PROFITLENS_ADDR")

	if v, ok := lookup("MINIO_SECURE"); ok && v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: MINIO_SECURE: %w", ErrInvalid, err)
		}
		c.MinIO.Secure = secure
	}
	return nil
}

// Validate reports every problem with the data and server settings.
// Mail settings are checked by the commands that send mail.
func (c Config) Validate() error {
	var errs []error

	switch c.Data.Source {
	case SourceDir:
		if c.Data.Dir == "" {
			errs = append(errs, errors.New("data.dir is required for the dir source"))
		}
	case SourceMinIO:
		if c.MinIO.Endpoint == "" {
			errs = append(errs, errors.New("minio.endpoint is required for the minio source"))
		}
		if c.MinIO.Bucket == "" {
			errs = append(errs, errors.New("minio.bucket is required for the minio source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown data.source %q", c.Data.Source))
	}

	ex := c.Data.Extracts
	if ex.Detail == "" || ex.Region == "" || ex.BusinessUnit == "" || ex.ProductGroup == "" {
		errs = append(errs, errors.New("data.extracts must name all four extracts"))
	}

	if _, err := engine.ParseRounding(c.Data.Rounding); err != nil {
		errs = append(errs, fmt.Errorf("data.rounding: %w", err))
	}

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// RankOptions returns the engine options selected by the data settings.
func (c Config) RankOptions() ([]engine.Option, error) {
	mode, err := engine.ParseRounding(c.Data.Rounding)
	if err != nil {
		return nil, fmt.Errorf("%w: data.rounding: %w", ErrInvalid, err)
	}
	return []engine.Option{engine.WithRounding(mode)}, nil
}

// Storage opens the configured data source.
func (c Config) Storage() (storage.Storage, error) {
	if c.Data.Source == SourceMinIO {
		store, err := storage.NewMinIO(c.MinIO)
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return store, nil
	}
	return storage.NewDir(c.Data.Dir), nil
}
