// Package config loads the cansig configuration file. TOML, JSON and YAML
// are selected by extension, with content auto-detection for anything else.
// Absent fields keep their defaults, so a config file only needs the values
// it changes.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the tool-wide settings a user can persist instead of
// repeating as flags.
type Config struct {
	// Width is the payload width in bits (1-64).
	Width int `toml:"width" json:"width" yaml:"width"`

	// Threshold is the noise cutoff for candidate bits.
	Threshold int `toml:"threshold" json:"threshold" yaml:"threshold"`

	// Pager pauses between report tables on interactive terminals.
	Pager bool `toml:"pager" json:"pager" yaml:"pager"`

	// DBPath is where --save stores runs.
	DBPath string `toml:"db_path" json:"db_path" yaml:"db_path"`

	LogLevel  string `toml:"log_level" json:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" json:"log_format" yaml:"log_format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Width:     64,
		Threshold: 4,
		Pager:     true,
		DBPath:    DefaultDBPath(),
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Width < 1 || c.Width > 64 {
		return fmt.Errorf("config: width must be between 1 and 64, got %d", c.Width)
	}
	if c.Threshold < 1 {
		return fmt.Errorf("config: threshold must be positive, got %d", c.Threshold)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	return nil
}

// Load reads and validates the configuration file at path. A missing file
// is an error: Load is for explicitly named configs, LoadDefault for the
// optional well-known one.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}

	cfg := DefaultConfig()
	switch filepath.Ext(path) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("config: decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode YAML: %w", err)
		}
	default:
		if err := autoDetectAndParse(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads the well-known config path, or plain defaults when no
// file exists there.
func LoadDefault() (*Config, error) {
	path := DefaultPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// autoDetectAndParse attempts to parse the config in multiple formats.
func autoDetectAndParse(data []byte, cfg *Config) error {
	if _, err := toml.Decode(string(data), cfg); err == nil {
		return nil
	}
	if err := json.Unmarshal(data, cfg); err == nil {
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err == nil {
		return nil
	}
	return fmt.Errorf("config: unable to parse config file (tried TOML, JSON, YAML)")
}

// DefaultPath returns the well-known config file location.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "cansig", "config.toml")
}

// DefaultDBPath returns the default run store location.
func DefaultDBPath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, _ := os.UserHomeDir()
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "cansig", "runs.db")
}
