// Package config holds the run configuration assembled from a YAML file,
// the environment, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/schema"
)

// Config describes one run. Field names mirror the command-line flags.
type Config struct {
	Org            string   `yaml:"org"`
	Region         string   `yaml:"region"`
	Cloud          string   `yaml:"cloud"`
	Project        string   `yaml:"project"`
	SourceType     string   `yaml:"source_type"`
	Connection     string   `yaml:"connection"`
	Mode           string   `yaml:"mode"`
	Objects        []string `yaml:"objects"`
	FileFormat     string   `yaml:"file_format"`
	Table          string   `yaml:"table"`
	TimestampField string   `yaml:"timestamp_field"`

	BaseURL      string        `yaml:"base_url"`
	CAPath       string        `yaml:"ca_path"`
	RateLimitRPS float64       `yaml:"rate_limit_rps"`
	Timeout      time.Duration `yaml:"timeout"`
	LogLevel     string        `yaml:"log_level"`
}

// Load reads a YAML run file. Unknown keys are rejected so typos surface early.
func Load(path string) (Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Config{}, fmt.Errorf("config path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var c Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return c, nil
}

// AddressingMode parses Mode.
func (c Config) AddressingMode() (schema.AddressingMode, error) {
	return schema.ParseAddressingMode(c.Mode)
}

// Validate reports every missing required value and an invalid mode in one error.
func (c Config) Validate() error {
	required := []struct {
		flag  string
		value string
	}{
		{"org", c.Org},
		{"region", c.Region},
		{"cloud", c.Cloud},
		{"project", c.Project},
		{"source-type", c.SourceType},
		{"connection", c.Connection},
		{"mode", c.Mode},
		{"file-format", c.FileFormat},
		{"table", c.Table},
		{"timestamp-field", c.TimestampField},
	}

	var errs []error
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, "--"+r.flag)
		}
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required values: %s", strings.Join(missing, ", ")))
	}
	if strings.TrimSpace(c.Mode) != "" {
		if _, err := c.AddressingMode(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(c.Objects) == 0 {
		errs = append(errs, fmt.Errorf("no objects given (use --object or --objects-file)"))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative (got %g)", c.RateLimitRPS))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative (got %s)", c.Timeout))
	}
	return errors.Join(errs...)
}
