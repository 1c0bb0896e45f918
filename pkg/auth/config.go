package auth

import (
	"fmt"
	"os"
)

// Config holds OIDC token verification settings.
type Config struct {
	Issuer    string `toml:"issuer"`
	ClientID  string `toml:"client_id"`
	JWKSURL   string `toml:"jwks_url"`
	RoleClaim string `toml:"role_claim"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Issuer    string
	ClientID  string
	JWKSURL   string
	RoleClaim string
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
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.JWKSURL != "" {
		c.JWKSURL = overlay.JWKSURL
	}
	if overlay.RoleClaim != "" {
		c.RoleClaim = overlay.RoleClaim
	}
}

func (c *Config) loadDefaults() {
	if c.RoleClaim == "" {
		c.RoleClaim = "role"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
	if env.ClientID != "" {
		if v := os.Getenv(env.ClientID); v != "" {
			c.ClientID = v
		}
	}
	if env.JWKSURL != "" {
		if v := os.Getenv(env.JWKSURL); v != "" {
			c.JWKSURL = v
		}
	}
	if env.RoleClaim != "" {
		if v := os.Getenv(env.RoleClaim); v != "" {
			c.RoleClaim = v
		}
	}
}

func (c *Config) validate() error {
	if c.Issuer == "" {
		return fmt.Errorf("issuer required")
	}
	return nil
}
