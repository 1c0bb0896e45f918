package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/proctor/pkg/formatting"
	"github.com/JaimeStill/proctor/pkg/middleware"
	"github.com/JaimeStill/proctor/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "PROCTOR_CORS_ENABLED",
	Origins:          "PROCTOR_CORS_ORIGINS",
	AllowedMethods:   "PROCTOR_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "PROCTOR_CORS_ALLOWED_HEADERS",
	AllowCredentials: "PROCTOR_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "PROCTOR_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "PROCTOR_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "PROCTOR_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, pagination, and frame upload settings.
type APIConfig struct {
	BasePath     string                `toml:"base_path"`
	MaxFrameSize string                `toml:"max_frame_size"`
	CORS         middleware.CORSConfig `toml:"cors"`
	Pagination   pagination.Config     `toml:"pagination"`
}

// MaxFrameSizeBytes returns MaxFrameSize in bytes. Call after Finalize.
func (c *APIConfig) MaxFrameSizeBytes() int64 {
	size, _ := formatting.ParseBytes(c.MaxFrameSize)
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if size, err := formatting.ParseBytes(c.MaxFrameSize); err != nil || size <= 0 {
		return fmt.Errorf("invalid max_frame_size: %q", c.MaxFrameSize)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxFrameSize != "" {
		c.MaxFrameSize = overlay.MaxFrameSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxFrameSize == "" {
		c.MaxFrameSize = "2MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("PROCTOR_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("PROCTOR_API_MAX_FRAME_SIZE"); v != "" {
		c.MaxFrameSize = v
	}
}
