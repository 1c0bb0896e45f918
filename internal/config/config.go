// Package config loads the proctor service configuration from TOML files
// and PROCTOR_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/proctor/internal/events"
	"github.com/JaimeStill/proctor/internal/notifier"
	"github.com/JaimeStill/proctor/pkg/auth"
	"github.com/JaimeStill/proctor/pkg/database"
	"github.com/JaimeStill/proctor/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvProctorEnv             = "PROCTOR_ENV"
	EnvProctorShutdownTimeout = "PROCTOR_SHUTDOWN_TIMEOUT"
	EnvProctorVersion         = "PROCTOR_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "PROCTOR_DB_HOST",
	Port:            "PROCTOR_DB_PORT",
	Name:            "PROCTOR_DB_NAME",
	User:            "PROCTOR_DB_USER",
	Password:        "PROCTOR_DB_PASSWORD",
	SSLMode:         "PROCTOR_DB_SSL_MODE",
	MaxOpenConns:    "PROCTOR_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "PROCTOR_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "PROCTOR_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "PROCTOR_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "PROCTOR_STORAGE_CONTAINER_NAME",
	ConnectionString: "PROCTOR_STORAGE_CONNECTION_STRING",
	AccountURL:       "PROCTOR_STORAGE_ACCOUNT_URL",
}

var authEnv = &auth.Env{
	Issuer:    "PROCTOR_AUTH_ISSUER",
	ClientID:  "PROCTOR_AUTH_CLIENT_ID",
	JWKSURL:   "PROCTOR_AUTH_JWKS_URL",
	RoleClaim: "PROCTOR_AUTH_ROLE_CLAIM",
}

var eventsEnv = &events.Env{
	Enabled: "PROCTOR_EVENTS_ENABLED",
	Brokers: "PROCTOR_EVENTS_BROKERS",
	Topic:   "PROCTOR_EVENTS_TOPIC",
}

var notifyEnv = &notifier.Env{
	APIURL:           "PROCTOR_NOTIFY_API_URL",
	Token:            "PROCTOR_NOTIFY_TOKEN",
	PollInterval:     "PROCTOR_NOTIFY_POLL_INTERVAL",
	RequestTimeout:   "PROCTOR_NOTIFY_REQUEST_TIMEOUT",
	MaxPerTick:       "PROCTOR_NOTIFY_MAX_PER_TICK",
	FetchConcurrency: "PROCTOR_NOTIFY_FETCH_CONCURRENCY",
	SlackToken:       "PROCTOR_NOTIFY_SLACK_TOKEN",
	SlackChannel:     "PROCTOR_NOTIFY_SLACK_CHANNEL",
	MQTTBroker:       "PROCTOR_NOTIFY_MQTT_BROKER",
	MQTTTopic:        "PROCTOR_NOTIFY_MQTT_TOPIC",
	MQTTClientID:     "PROCTOR_NOTIFY_MQTT_CLIENT_ID",
	DigestSchedule:   "PROCTOR_NOTIFY_DIGEST_SCHEDULE",
}

// Config is the root configuration for the proctor service and its tools.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Auth            auth.Config     `toml:"auth"`
	Proctor         ProctorConfig   `toml:"proctor"`
	Events          events.Config   `toml:"events"`
	Notify          notifier.Config `toml:"notify"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the PROCTOR_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvProctorEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes every section the server needs. The notify section is left
// raw; see LoadNotify.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// LoadNotify reads the same files as Load but finalizes only the notify section.
func LoadNotify() (*notifier.Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := cfg.Notify.Finalize(notifyEnv); err != nil {
		return nil, fmt.Errorf("finalize config: notify: %w", err)
	}

	return &cfg.Notify, nil
}

// LoadDatabase reads the same files as Load but finalizes only the database section.
func LoadDatabase() (*database.Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := cfg.Database.Finalize(databaseEnv); err != nil {
		return nil, fmt.Errorf("finalize config: database: %w", err)
	}

	return &cfg.Database, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Proctor.Merge(&overlay.Proctor)
	c.Events.Merge(&overlay.Events)
	c.Notify.Merge(&overlay.Notify)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Proctor.Finalize(); err != nil {
		return fmt.Errorf("proctor: %w", err)
	}
	if err := c.Events.Finalize(eventsEnv); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvProctorShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvProctorVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func read() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	return cfg, nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvProctorEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
