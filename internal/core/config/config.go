// Package config handles configuration loading and validation for relay.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	API         APIConfig      `yaml:"api"`
	Sync        SyncConfig     `yaml:"sync"`
	Database    DatabaseConfig `yaml:"database"`
	MetricsAddr string         `yaml:"metrics_addr"` // empty disables the /metrics endpoint
	DataDir     string         `yaml:"-"`            // set by caller, not from config file
}

// APIConfig describes the remote progress API and how to authenticate to it.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	TokenFile      string        `yaml:"token_file"` // preferred over token_env when both are set
	TokenEnv       string        `yaml:"token_env"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// SyncConfig tunes the batching, retry, and reconciliation behavior.
type SyncConfig struct {
	BatchWindow    time.Duration `yaml:"batch_window"`
	BatchThreshold int           `yaml:"batch_threshold"`
	Interval       time.Duration `yaml:"interval"`
	MaxAttempts    int           `yaml:"max_attempts"`
	BaseDelay      time.Duration `yaml:"base_delay"`
	MaxQueueSize   int           `yaml:"max_queue_size"`
}

// DatabaseConfig tunes the SQLite connection.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			TokenEnv:       "RELAY_TOKEN",
			RequestTimeout: 10 * time.Second,
		},
		Sync: SyncConfig{
			BatchWindow:    2 * time.Second,
			BatchThreshold: 10,
			Interval:       30 * time.Second,
			MaxAttempts:    3,
			BaseDelay:      time.Second,
			MaxQueueSize:   100,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills zero values with defaults. A config file that sets only
// some fields gets defaults for the rest.
func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = def.API.RequestTimeout
	}
	if c.API.TokenEnv == "" && c.API.TokenFile == "" {
		c.API.TokenEnv = def.API.TokenEnv
	}
	if c.Sync.BatchWindow <= 0 {
		c.Sync.BatchWindow = def.Sync.BatchWindow
	}
	if c.Sync.BatchThreshold <= 0 {
		c.Sync.BatchThreshold = def.Sync.BatchThreshold
	}
	if c.Sync.Interval <= 0 {
		c.Sync.Interval = def.Sync.Interval
	}
	if c.Sync.MaxAttempts <= 0 {
		c.Sync.MaxAttempts = def.Sync.MaxAttempts
	}
	if c.Sync.BaseDelay <= 0 {
		c.Sync.BaseDelay = def.Sync.BaseDelay
	}
	if c.Sync.MaxQueueSize <= 0 {
		c.Sync.MaxQueueSize = def.Sync.MaxQueueSize
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = def.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = def.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout <= 0 {
		c.Database.BusyTimeout = def.Database.BusyTimeout
	}
}
