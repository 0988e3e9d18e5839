// Package config resolves run settings. Later sources win: built-in defaults,
// then an optional YAML file, then BLASTFASTA_* environment variables, then
// command-line flags (applied by the caller).
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"blastfasta/internal/errs"
)

// EnvPrefix scopes every environment variable read by FromEnv.
const EnvPrefix = "BLASTFASTA_"

// Config is everything a run needs apart from the input path.
type Config struct {
	Database string `yaml:"database" validate:"required,database"`
	Output   string `yaml:"output" validate:"required"`
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`
	Email    string `yaml:"email" validate:"omitempty,email"`

	QueueCapacity int           `yaml:"queue_capacity" validate:"min=1"`
	MinWorkers    int           `yaml:"min_workers" validate:"min=1"`
	MaxWorkers    int           `yaml:"max_workers" validate:"min=1,gtefield=MinWorkers"`
	IdleTimeout   time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	DrainTimeout  time.Duration `yaml:"drain_timeout" validate:"gt=0"`
	PollInterval  time.Duration `yaml:"poll_interval" validate:"gt=0"`
	MaxPolls      int           `yaml:"max_polls" validate:"min=0"`

	LogLevel  string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic disabled off none"`
	LogFormat string `yaml:"log_format" validate:"oneof=console json"`
	Quiet     bool   `yaml:"quiet"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database:      "uniref90",
		Output:        "fastaBlast.tsv",
		QueueCapacity: 10000,
		MinWorkers:    1,
		MaxWorkers:    32,
		IdleTimeout:   60 * time.Second,
		DrainTimeout:  15 * time.Minute,
		PollInterval:  3 * time.Second,
		LogLevel:      "info",
		LogFormat:     "console",
	}
}

// Load layers the YAML file at path (skipped when empty) and the environment
// over the defaults. The result is not validated; flags may still change it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := MergeFile(&cfg, path); err != nil {
			return cfg, err
		}
	}
	if err := NewEnv(EnvPrefix).Apply(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MergeFile overlays the keys present in a YAML file onto cfg. Unknown keys
// are rejected.
func MergeFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrapf(err, errs.KindConfig, "read config %s", path)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b), yaml.DisallowUnknownField())
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return errs.Wrapf(err, errs.KindConfig, "parse config %s", path)
	}
	return nil
}
