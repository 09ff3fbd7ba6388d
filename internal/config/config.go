package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration. Loaded from a YAML file with
// environment overrides for anything secret or deployment-specific.
type Config struct {
	// Backend connection
	BaseURL  string        `yaml:"base_url"`
	APIToken string        `yaml:"api_token"`
	Tenant   string        `yaml:"tenant"`
	Timeout  time.Duration `yaml:"timeout"`

	// Request pacing (token bucket)
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`

	// Localization defaults sent as headers on every request
	Language   string `yaml:"language"`
	CurrencyID int    `yaml:"currency_id"`

	// Run history database. Empty disables history.
	HistoryPath string `yaml:"history_path"`
}

// Default returns sensible defaults for everything except the backend
// address and token, which have no safe default.
func Default() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		RatePerSecond: 10,
		Burst:         20,
		Language:      "en",
		CurrencyID:    1,
	}
}

// Path returns the default config file location.
func Path() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".expofind", "config.yaml")
}

// Load reads the config file at path (or the default location if path is
// empty), applies defaults for unset fields, then applies environment
// overrides. A missing file is fine as long as the environment supplies
// the base URL.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if cfg.BaseURL == "" {
		return nil, errors.New("no backend base URL configured (set base_url or EXPOFIND_BASE_URL)")
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = d.RatePerSecond
	}
	if c.Burst <= 0 {
		c.Burst = d.Burst
	}
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.CurrencyID <= 0 {
		c.CurrencyID = d.CurrencyID
	}
}

// applyEnv fills in values from environment variables. Environment wins
// over the file so deployments can override without editing config.
func (c *Config) applyEnv() {
	if v := os.Getenv("EXPOFIND_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("EXPOFIND_API_TOKEN"); v != "" {
		c.APIToken = v
	}
	if v := os.Getenv("EXPOFIND_TENANT"); v != "" {
		c.Tenant = v
	}
	if v := os.Getenv("EXPOFIND_LANGUAGE"); v != "" {
		c.Language = v
	}
	if v := os.Getenv("EXPOFIND_HISTORY"); v != "" {
		c.HistoryPath = v
	}
}
