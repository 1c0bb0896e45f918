package detector

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config holds inference endpoint settings.
type Config struct {
	Endpoint         string `toml:"endpoint"`
	FallbackEndpoint string `toml:"fallback_endpoint"`
	HealthPath       string `toml:"health_path"`
	Timeout          string `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Endpoint         string
	FallbackEndpoint string
	HealthPath       string
	Timeout          string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.FallbackEndpoint != "" {
		c.FallbackEndpoint = overlay.FallbackEndpoint
	}
	if overlay.HealthPath != "" {
		c.HealthPath = overlay.HealthPath
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "http://localhost:8500/v1/detect"
	}
	if c.HealthPath == "" {
		c.HealthPath = "/healthz"
	}
	if c.Timeout == "" {
		c.Timeout = "800ms"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Endpoint != "" {
		if v := os.Getenv(env.Endpoint); v != "" {
			c.Endpoint = v
		}
	}
	if env.FallbackEndpoint != "" {
		if v := os.Getenv(env.FallbackEndpoint); v != "" {
			c.FallbackEndpoint = v
		}
	}
	if env.HealthPath != "" {
		if v := os.Getenv(env.HealthPath); v != "" {
			c.HealthPath = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
}

func (c *Config) validate() error {
	if _, err := url.ParseRequestURI(c.Endpoint); err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if c.FallbackEndpoint != "" {
		if _, err := url.ParseRequestURI(c.FallbackEndpoint); err != nil {
			return fmt.Errorf("invalid fallback_endpoint: %w", err)
		}
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid timeout: %q", c.Timeout)
	}
	return nil
}
