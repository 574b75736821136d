// Package config loads the schemaorder.yaml configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/riyasyash/schemaorder/internal/db"
	"github.com/riyasyash/schemaorder/internal/logger"
)

// DefaultDuplicateThreshold disables inference once duplicated primary key
// signatures outnumber distinct ones.
const DefaultDuplicateThreshold = 1.0

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var configLocations = []string{"schemaorder.yaml", "schemaorder.yml", ".schemaorder.yaml", ".schemaorder.yml"}

// Config represents the schemaorder.yaml configuration structure
type Config struct {
	Database struct {
		Driver  string   `yaml:"driver"`
		DSN     string   `yaml:"dsn"`
		Schemas []string `yaml:"schemas"`
	} `yaml:"database"`

	Inference struct {
		Enabled            *bool    `yaml:"enabled"`
		DuplicateThreshold *float64 `yaml:"duplicate_threshold"`
		ExcludeColumns     []string `yaml:"exclude_columns"`
	} `yaml:"inference"`

	Output struct {
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"output"`

	LogLevel string `yaml:"log_level"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration file at path. An empty path searches the
// working directory; when no file is found the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	if path == "" {
		logger.Config().Debug("no configuration file found, using defaults")
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	logger.Config().Debug("configuration loaded", "path", path)
	return &cfg, nil
}

// Path returns the configuration file named by SCHEMAORDER_CONFIG, or the
// first default location that exists.
func Path() string {
	if path := os.Getenv("SCHEMAORDER_CONFIG"); path != "" {
		return path
	}

	for _, loc := range configLocations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = configLocations[0]
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = db.DriverPostgres
	}
	if c.Inference.Enabled == nil {
		enabled := true
		c.Inference.Enabled = &enabled
	}
	if c.Inference.DuplicateThreshold == nil {
		threshold := DefaultDuplicateThreshold
		c.Inference.DuplicateThreshold = &threshold
	}
	if c.Output.Format == "" {
		c.Output.Format = FormatText
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// InferenceEnabled reports whether implied constraints should be inferred.
func (c *Config) InferenceEnabled() bool {
	return c.Inference.Enabled == nil || *c.Inference.Enabled
}

// SetInferenceEnabled overrides the inference switch.
func (c *Config) SetInferenceEnabled(enabled bool) {
	c.Inference.Enabled = &enabled
}

// Validate checks driver, output format, threshold and exclusion patterns.
func (c *Config) Validate() error {
	if _, err := db.NormalizeDriver(c.Database.Driver); err != nil {
		return err
	}

	switch c.Output.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}

	if t := c.Inference.DuplicateThreshold; t != nil && *t < 0 {
		return fmt.Errorf("duplicate_threshold must not be negative, got %v", *t)
	}

	if _, err := c.ExcludePatterns(); err != nil {
		return err
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// ExcludePatterns compiles the columns excluded from implied-constraint inference.
func (c *Config) ExcludePatterns() ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, 0, len(c.Inference.ExcludeColumns))
	for _, expr := range c.Inference.ExcludeColumns {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude_columns pattern %q: %w", expr, err)
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}
