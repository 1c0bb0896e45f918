package notifier

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls the notifier process.
type Config struct {
	APIURL           string `toml:"api_url"`
	Token            string `toml:"token"`
	PollInterval     string `toml:"poll_interval"`
	RequestTimeout   string `toml:"request_timeout"`
	MaxPerTick       int    `toml:"max_per_tick"`
	FetchConcurrency int    `toml:"fetch_concurrency"`
	SlackToken       string `toml:"slack_token"`
	SlackChannel     string `toml:"slack_channel"`
	MQTTBroker       string `toml:"mqtt_broker"`
	MQTTTopic        string `toml:"mqtt_topic"`
	MQTTClientID     string `toml:"mqtt_client_id"`
	DigestSchedule   string `toml:"digest_schedule"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	APIURL           string
	Token            string
	PollInterval     string
	RequestTimeout   string
	MaxPerTick       string
	FetchConcurrency string
	SlackToken       string
	SlackChannel     string
	MQTTBroker       string
	MQTTTopic        string
	MQTTClientID     string
	DigestSchedule   string
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
	mergeString(&c.APIURL, overlay.APIURL)
	mergeString(&c.Token, overlay.Token)
	mergeString(&c.PollInterval, overlay.PollInterval)
	mergeString(&c.RequestTimeout, overlay.RequestTimeout)
	if overlay.MaxPerTick > 0 {
		c.MaxPerTick = overlay.MaxPerTick
	}
	if overlay.FetchConcurrency > 0 {
		c.FetchConcurrency = overlay.FetchConcurrency
	}
	mergeString(&c.SlackToken, overlay.SlackToken)
	mergeString(&c.SlackChannel, overlay.SlackChannel)
	mergeString(&c.MQTTBroker, overlay.MQTTBroker)
	mergeString(&c.MQTTTopic, overlay.MQTTTopic)
	mergeString(&c.MQTTClientID, overlay.MQTTClientID)
	mergeString(&c.DigestSchedule, overlay.DigestSchedule)
}

// PollIntervalDuration parses PollInterval. Call after Finalize.
func (c *Config) PollIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	return d
}

// RequestTimeoutDuration parses RequestTimeout. Call after Finalize.
func (c *Config) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// SlackEnabled reports whether Slack delivery is configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackToken != "" && c.SlackChannel != ""
}

// MQTTEnabled reports whether MQTT delivery is configured.
func (c *Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

func (c *Config) loadDefaults() {
	if c.APIURL == "" {
		c.APIURL = "http://localhost:8080/api"
	}
	if c.PollInterval == "" {
		c.PollInterval = PollInterval.String()
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = "5s"
	}
	if c.MaxPerTick <= 0 {
		c.MaxPerTick = MaxPerTick
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = FetchConcurrency
	}
	if c.MQTTTopic == "" {
		c.MQTTTopic = "proctor/notifications"
	}
	if c.MQTTClientID == "" {
		c.MQTTClientID = "proctor-notifier"
	}
}

func (c *Config) loadEnv(env *Env) {
	envString(&c.APIURL, env.APIURL)
	envString(&c.Token, env.Token)
	envString(&c.PollInterval, env.PollInterval)
	envString(&c.RequestTimeout, env.RequestTimeout)
	envInt(&c.MaxPerTick, env.MaxPerTick)
	envInt(&c.FetchConcurrency, env.FetchConcurrency)
	envString(&c.SlackToken, env.SlackToken)
	envString(&c.SlackChannel, env.SlackChannel)
	envString(&c.MQTTBroker, env.MQTTBroker)
	envString(&c.MQTTTopic, env.MQTTTopic)
	envString(&c.MQTTClientID, env.MQTTClientID)
	envString(&c.DigestSchedule, env.DigestSchedule)
}

func (c *Config) validate() error {
	if c.Token == "" {
		return fmt.Errorf("token required")
	}
	if d, err := time.ParseDuration(c.PollInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid poll_interval: %q", c.PollInterval)
	}
	if d, err := time.ParseDuration(c.RequestTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid request_timeout: %q", c.RequestTimeout)
	}
	if c.DigestSchedule != "" {
		if !c.SlackEnabled() {
			return fmt.Errorf("digest_schedule requires slack_token and slack_channel")
		}
		if _, err := ParseSchedule(c.DigestSchedule); err != nil {
			return err
		}
	}
	return nil
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envString(dst *string, name string) {
	if name == "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(dst *int, name string) {
	if name == "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
