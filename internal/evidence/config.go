package evidence

import (
	"fmt"
	"os"
	"strings"
)

// Config controls where evidence stills are stored and how they are referenced.
type Config struct {
	KeyPrefix string `toml:"key_prefix"`
	MediaBase string `toml:"media_base"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	KeyPrefix string
	MediaBase string
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
	if overlay.KeyPrefix != "" {
		c.KeyPrefix = overlay.KeyPrefix
	}
	if overlay.MediaBase != "" {
		c.MediaBase = overlay.MediaBase
	}
}

func (c *Config) loadDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "evidence"
	}
	if c.MediaBase == "" {
		c.MediaBase = "/api/storage/"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.KeyPrefix != "" {
		if v := os.Getenv(env.KeyPrefix); v != "" {
			c.KeyPrefix = v
		}
	}
	if env.MediaBase != "" {
		if v := os.Getenv(env.MediaBase); v != "" {
			c.MediaBase = v
		}
	}
}

func (c *Config) validate() error {
	c.KeyPrefix = strings.Trim(c.KeyPrefix, "/")
	if c.KeyPrefix == "" {
		return fmt.Errorf("key_prefix required")
	}
	if !strings.HasSuffix(c.MediaBase, "/") {
		c.MediaBase += "/"
	}
	return nil
}
