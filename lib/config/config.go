// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment of the course
// server the client talks to.
type Environment string

const (
	// Development is a local course server, usually bktutor-mock.
	Development Environment = "development"
	// Staging is a shared pre-production server.
	Staging Environment = "staging"
	// Production is the live course server.
	Production Environment = "production"
)

// Storage backends for the persisted session.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the master configuration for bktutor.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Server configures the course server connection.
	Server ServerConfig `yaml:"server"`

	// Storage configures where the session is persisted.
	Storage StorageConfig `yaml:"storage"`

	// Catalog configures catalog presentation.
	Catalog CatalogConfig `yaml:"catalog"`

	// Log configures the command logger.
	Log LogConfig `yaml:"log"`

	// Per-environment overrides, applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Server  *ServerConfig  `yaml:"server,omitempty"`
	Storage *StorageConfig `yaml:"storage,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
}

// ServerConfig configures the course server connection.
type ServerConfig struct {
	// BaseURL is the root URL of the course server.
	// Default: http://localhost:8000
	BaseURL string `yaml:"base_url"`

	// RequestTimeout bounds every request. There is no retry.
	// Default: 30s
	RequestTimeout Duration `yaml:"request_timeout"`
}

// StorageConfig configures session persistence.
type StorageConfig struct {
	// Backend is one of "file", "sqlite", "memory".
	// Default: file
	Backend string `yaml:"backend"`

	// Path is the session file or database path. Ignored by the memory
	// backend.
	// Default: ${HOME}/.local/state/bktutor/session.json
	Path string `yaml:"path"`
}

// CatalogConfig configures catalog presentation.
type CatalogConfig struct {
	// PageIncrement is how many courses each "load more" reveals.
	// Default: 6
	PageIncrement int `yaml:"page_increment"`
}

// LogConfig configures the command logger.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: warn
	Level string `yaml:"level"`
}

// Duration is a time.Duration that unmarshals from YAML strings such as
// "30s" or "1m30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var text string
	if err := node.Decode(&text); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the default configuration. The CLI uses it as-is when
// neither BKTUTOR_CONFIG nor --config is given.
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			BaseURL:        "http://localhost:8000",
			RequestTimeout: Duration(30 * time.Second),
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			Path:    "${HOME}/.local/state/bktutor/session.json",
		},
		Catalog: CatalogConfig{
			PageIncrement: 6,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load loads configuration from the file named by BKTUTOR_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv("BKTUTOR_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("BKTUTOR_CONFIG environment variable not set; " +
			"set it to the path of your bktutor.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, applies the
// section for the selected environment, and expands variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	return cfg, nil
}

// Finalize expands ${VAR} patterns and applies BKTUTOR_SERVER. Callers
// run it once after all flag overrides have been applied, so that an
// explicit --server still beats the environment.
func (c *Config) Finalize(serverOverride string) {
	if serverOverride != "" {
		c.Server.BaseURL = serverOverride
	} else if value := os.Getenv("BKTUTOR_SERVER"); value != "" {
		c.Server.BaseURL = value
	}
	c.expandVariables()
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.Server != nil {
		if overrides.Server.BaseURL != "" {
			c.Server.BaseURL = overrides.Server.BaseURL
		}
		if overrides.Server.RequestTimeout != 0 {
			c.Server.RequestTimeout = overrides.Server.RequestTimeout
		}
	}
	if overrides.Storage != nil {
		if overrides.Storage.Backend != "" {
			c.Storage.Backend = overrides.Storage.Backend
		}
		if overrides.Storage.Path != "" {
			c.Storage.Path = overrides.Storage.Path
		}
	}
	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Server.BaseURL = expandVars(c.Server.BaseURL, vars)
	if c.Storage.Path != "" {
		c.Storage.Path = filepath.Clean(expandVars(c.Storage.Path, vars))
	}
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Server.BaseURL == "" {
		errs = append(errs, fmt.Errorf("server.base_url is required"))
	}
	if c.Server.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout must not be negative"))
	}

	backends := []string{BackendFile, BackendSQLite, BackendMemory}
	if !slices.Contains(backends, c.Storage.Backend) {
		errs = append(errs, fmt.Errorf("storage.backend must be one of: %v", backends))
	}
	if c.Storage.Backend != BackendMemory && c.Storage.Path == "" {
		errs = append(errs, fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend))
	}

	if c.Catalog.PageIncrement <= 0 {
		errs = append(errs, fmt.Errorf("catalog.page_increment must be positive"))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsureStorageDir creates the directory holding the session store with
// owner-only permissions.
func (c *Config) EnsureStorageDir() error {
	if c.Storage.Backend == BackendMemory {
		return nil
	}
	directory := filepath.Dir(c.Storage.Path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", directory, err)
	}
	return nil
}
