// Package config holds the settings of a waitdie deployment: the pool order
// and round cap handed to every scheduler, logging, metrics and batch
// parallelism.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"waitdie/transaction"
)

// Config holds the complete configuration.
type Config struct {
	Order     string        `yaml:"order"`
	MaxRounds int           `yaml:"max_rounds"`
	Log       LogConfig     `yaml:"log"`
	Metrics   MetricsConfig `yaml:"metrics"`
	// Parallelism bounds the number of runs executed at once by a batch.
	Parallelism int `yaml:"parallelism"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Order: transaction.Ascending.String(),
		Log: LogConfig{
			Level: "info",
		},
		Parallelism: 4,
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML data on top of the defaults. Unknown fields are
// rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decoding config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := transaction.ParseOrder(c.Order); err != nil {
		errs = append(errs, ValidationError{Field: "order", Message: err.Error()})
	}
	if c.MaxRounds < 0 {
		errs = append(errs, ValidationError{Field: "max_rounds", Message: "must not be negative"})
	}
	if hclog.LevelFromString(c.Log.Level) == hclog.NoLevel {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown level %q", c.Log.Level),
		})
	}
	if c.Parallelism < 1 {
		errs = append(errs, ValidationError{Field: "parallelism", Message: "must be at least 1"})
	}
	return errors.Join(errs...)
}

// SchedulerOrder returns the parsed pool order.
func (c *Config) SchedulerOrder() transaction.Order {
	order, err := transaction.ParseOrder(c.Order)
	if err != nil {
		return transaction.Ascending
	}
	return order
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() hclog.Level {
	return hclog.LevelFromString(c.Log.Level)
}
