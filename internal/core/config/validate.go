package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for values that would misbehave at runtime.
// BaseURL may be empty: the engine then runs local-only and every save lands
// in the outbox, which is the documented degraded mode.
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("api.base_url: %w", err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Errorf("api.base_url: unsupported scheme %q", u.Scheme))
		}
	}

	if c.API.TokenEnv != "" && strings.ContainsAny(c.API.TokenEnv, " =") {
		errs = append(errs, fmt.Errorf("api.token_env: %q is not a valid environment variable name", c.API.TokenEnv))
	}

	if c.Sync.BatchThreshold > c.Sync.MaxQueueSize {
		errs = append(errs, fmt.Errorf(
			"sync.batch_threshold (%d) must not exceed sync.max_queue_size (%d): a single failed batch would overflow the outbox",
			c.Sync.BatchThreshold, c.Sync.MaxQueueSize))
	}

	if c.Sync.Interval < c.Sync.BatchWindow {
		errs = append(errs, fmt.Errorf(
			"sync.interval (%s) must be at least sync.batch_window (%s)",
			c.Sync.Interval, c.Sync.BatchWindow))
	}

	return errors.Join(errs...)
}
