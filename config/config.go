// Package config loads the optional YAML file with the bot's tunables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Edward-Boguslavsky/Birthday-Bot/dal"
	"github.com/Edward-Boguslavsky/Birthday-Bot/session"
)

// Config represents the tunables that are not command line flags.
type Config struct {
	Storage  string        `yaml:"storage"`
	DataDir  string        `yaml:"data_dir"`
	Session  SessionConfig `yaml:"session"`
	Sweep    SweepConfig   `yaml:"sweep"`
	Metrics  MetricsConfig `yaml:"metrics"`
	LogLevel string        `yaml:"log_level"`
}

// SessionConfig controls editor sessions.
type SessionConfig struct {
	Scope           string        `yaml:"scope"`
	TTL             time.Duration `yaml:"ttl"`
	NotificationTTL time.Duration `yaml:"notification_ttl"`
}

// SweepConfig controls the birthday role sweep.
type SweepConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// MetricsConfig controls the Prometheus endpoint. An empty address disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Storage: dal.DriverJSON,
		DataDir: "data",
		Session: SessionConfig{
			Scope:           string(session.ScopeGuild),
			TTL:             session.DefaultTTL,
			NotificationTTL: 7 * time.Second,
		},
		Sweep:    SweepConfig{Interval: time.Minute},
		LogLevel: "info",
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	d := Default()
	if cfg.Storage == "" {
		cfg.Storage = d.Storage
	}
	if cfg.DataDir == "" {
		cfg.DataDir = d.DataDir
	}
	if cfg.Session.Scope == "" {
		cfg.Session.Scope = d.Session.Scope
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = d.Session.TTL
	}
	if cfg.Session.NotificationTTL == 0 {
		cfg.Session.NotificationTTL = d.Session.NotificationTTL
	}
	if cfg.Sweep.Interval == 0 {
		cfg.Sweep.Interval = d.Sweep.Interval
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = d.LogLevel
	}
}

// Validate checks the values a file may get wrong.
func (c *Config) Validate() error {
	switch c.Storage {
	case dal.DriverJSON, dal.DriverSQLite:
	default:
		return fmt.Errorf("invalid storage %q (expected %s or %s)", c.Storage, dal.DriverJSON, dal.DriverSQLite)
	}
	if _, err := session.ParseScope(c.Session.Scope); err != nil {
		return err
	}
	if c.Session.TTL < time.Minute {
		return fmt.Errorf("session.ttl must be at least 1m, got %s", c.Session.TTL)
	}
	if c.Session.NotificationTTL <= 0 || c.Session.NotificationTTL >= c.Session.TTL {
		return fmt.Errorf("session.notification_ttl must be positive and shorter than session.ttl, got %s", c.Session.NotificationTTL)
	}
	if c.Sweep.Interval < 10*time.Second {
		return fmt.Errorf("sweep.interval must be at least 10s, got %s", c.Sweep.Interval)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// Scope returns the parsed session scope.
func (c *Config) Scope() session.Scope {
	scope, err := session.ParseScope(c.Session.Scope)
	if err != nil {
		return session.ScopeGuild
	}
	return scope
}
