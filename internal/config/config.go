// Package config loads and persists provisr configuration.
//
// Configuration lives at ~/.provisr/config.yaml (override the directory with
// PROVISR_HOME). A missing file is not an error: New() returns baked-in
// defaults, and file contents overlay them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables consumed by provisr.
const (
	// EnvHome overrides the configuration directory.
	EnvHome = "PROVISR_HOME"

	// EnvLogLevel overrides the configured log level.
	EnvLogLevel = "PROVISR_LOG_LEVEL"

	// EnvClientSecret supplies the directory application's client secret.
	// Secrets are never read from the config file.
	EnvClientSecret = "PROVISR_CLIENT_SECRET"
)

// Default throttle policy: pause after every 20th successful creation for
// three seconds. A courtesy to the rate-limited directory service, not a
// correctness mechanism.
const (
	DefaultThrottleEvery = 20
	DefaultThrottlePause = 3 * time.Second
)

// defaultLogFile is the relative path of the append-only batch log.
const defaultLogFile = "provisr.log"

// Config is the root configuration object.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Graph    GraphConfig    `yaml:"graph"`
	Throttle ThrottleConfig `yaml:"throttle"`

	// configPath remembers where the config was loaded from so Save writes
	// back to the same place.
	configPath string
}

// LoggingConfig configures the run logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// GraphConfig locates the directory service and the application identity
// used to authenticate against it.
type GraphConfig struct {
	// BaseURL is the directory service API root.
	BaseURL string `yaml:"base_url"`

	// LoginURL is the identity provider authority used for token requests.
	LoginURL string `yaml:"login_url"`

	TenantID string `yaml:"tenant_id"`
	ClientID string `yaml:"client_id"`
}

// ThrottleConfig paces account creation against the remote service.
type ThrottleConfig struct {
	// Every pauses after this many successful creations. Zero disables
	// throttling.
	Every int `yaml:"every"`

	// PauseSeconds is the pause duration in whole seconds.
	PauseSeconds int `yaml:"pause_seconds"`
}

// Pause returns the configured pause as a duration.
func (t ThrottleConfig) Pause() time.Duration {
	return time.Duration(t.PauseSeconds) * time.Second
}

// New returns a Config populated with defaults and, when present, values
// from the default config file.
func New() *Config {
	cfg := defaults()

	path, err := DefaultConfigPath()
	if err != nil {
		return cfg
	}
	cfg.configPath = path

	data, err := os.ReadFile(path)
	if err != nil {
		// Missing config file means defaults. Anything else is still not
		// fatal; the defaults keep the CLI usable.
		return cfg
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return defaults()
	}
	return cfg
}

// LoadFromPath reads configuration from an explicit file path. Unlike New,
// a missing or malformed file is an error here: the operator asked for this
// exact file.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}
	cfg.configPath = path
	return cfg, nil
}

// Defaults returns the baked-in configuration without consulting any
// config file. Used by `provisr config init` to write a fresh file.
func Defaults() *Config {
	return defaults()
}

// defaults returns the baked-in configuration.
func defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   defaultLogFile,
		},
		Graph: GraphConfig{
			BaseURL:  "https://graph.microsoft.com",
			LoginURL: "https://login.microsoftonline.com",
		},
		Throttle: ThrottleConfig{
			Every:        DefaultThrottleEvery,
			PauseSeconds: int(DefaultThrottlePause / time.Second),
		},
	}
}

// ApplyEnvOverrides applies environment-variable overrides on top of the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
}

// SetConfigPath overrides where Save writes the configuration.
func (c *Config) SetConfigPath(path string) {
	c.configPath = path
}

// Save writes the configuration as YAML to its config path, creating the
// configuration directory if needed.
func (c *Config) Save() error {
	path := c.configPath
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file %q: %w", path, err)
	}
	return nil
}

// ConfigDir returns the provisr configuration directory.
func ConfigDir() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".provisr"), nil
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
