// Package config loads dashboard settings from YAML.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds dashboard settings. Only BaseURL is needed by the polling
// and blocklist core; the rest shape the hosting process.
type Config struct {
	BaseURL            string        `yaml:"base_url"`
	Listen             string        `yaml:"listen"`
	PollInterval       time.Duration `yaml:"poll_interval"`
	FeedbackClearDelay time.Duration `yaml:"feedback_clear_delay"`
	AuditLog           string        `yaml:"audit_log"`
	LogLevel           string        `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BaseURL:            "http://localhost:5000",
		Listen:             ":8088",
		PollInterval:       5 * time.Second,
		FeedbackClearDelay: 2200 * time.Millisecond,
		LogLevel:           "info",
	}
}

// LoadFromFile loads settings from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML bytes over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks that settings are usable.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url %q must be an absolute http(s) URL", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url %q has no host", c.BaseURL)
	}
	if c.PollInterval < time.Second || c.PollInterval%time.Second != 0 {
		// The poll schedule has whole-second resolution.
		return fmt.Errorf("poll_interval %v must be a whole number of seconds, at least 1s", c.PollInterval)
	}
	if c.FeedbackClearDelay <= 0 {
		return fmt.Errorf("feedback_clear_delay must be positive")
	}
	return nil
}
