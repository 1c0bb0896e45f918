package config

import (
	"fmt"
	"os"
	"time"

	"github.com/JaimeStill/proctor/internal/detector"
	"github.com/JaimeStill/proctor/internal/evidence"
)

const (
	EnvProctorDetectInterval = "PROCTOR_DETECT_INTERVAL"
	EnvProctorCooldown       = "PROCTOR_COOLDOWN"
	EnvProctorFrameMaxAge    = "PROCTOR_FRAME_MAX_AGE"
)

var detectorEnv = &detector.Env{
	Endpoint:         "PROCTOR_DETECTOR_ENDPOINT",
	FallbackEndpoint: "PROCTOR_DETECTOR_FALLBACK_ENDPOINT",
	HealthPath:       "PROCTOR_DETECTOR_HEALTH_PATH",
	Timeout:          "PROCTOR_DETECTOR_TIMEOUT",
}

var evidenceEnv = &evidence.Env{
	KeyPrefix: "PROCTOR_EVIDENCE_KEY_PREFIX",
	MediaBase: "PROCTOR_EVIDENCE_MEDIA_BASE",
}

// ProctorConfig holds detection loop timing and its collaborators.
type ProctorConfig struct {
	DetectInterval string          `toml:"detect_interval"`
	Cooldown       string          `toml:"cooldown"`
	FrameMaxAge    string          `toml:"frame_max_age"`
	Detector       detector.Config `toml:"detector"`
	Evidence       evidence.Config `toml:"evidence"`
}

// DetectIntervalDuration returns DetectInterval as a time.Duration.
func (c *ProctorConfig) DetectIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.DetectInterval)
	return d
}

// CooldownDuration returns Cooldown as a time.Duration.
func (c *ProctorConfig) CooldownDuration() time.Duration {
	d, _ := time.ParseDuration(c.Cooldown)
	return d
}

// FrameMaxAgeDuration returns FrameMaxAge as a time.Duration.
func (c *ProctorConfig) FrameMaxAgeDuration() time.Duration {
	d, _ := time.ParseDuration(c.FrameMaxAge)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation
// for the proctor config and its nested detector and evidence configs.
func (c *ProctorConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Detector.Finalize(detectorEnv); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	if err := c.Evidence.Finalize(evidenceEnv); err != nil {
		return fmt.Errorf("evidence: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *ProctorConfig) Merge(overlay *ProctorConfig) {
	if overlay.DetectInterval != "" {
		c.DetectInterval = overlay.DetectInterval
	}
	if overlay.Cooldown != "" {
		c.Cooldown = overlay.Cooldown
	}
	if overlay.FrameMaxAge != "" {
		c.FrameMaxAge = overlay.FrameMaxAge
	}

	c.Detector.Merge(&overlay.Detector)
	c.Evidence.Merge(&overlay.Evidence)
}

func (c *ProctorConfig) loadDefaults() {
	if c.DetectInterval == "" {
		c.DetectInterval = "1s"
	}
	if c.Cooldown == "" {
		c.Cooldown = "3s"
	}
	if c.FrameMaxAge == "" {
		c.FrameMaxAge = "5s"
	}
}

func (c *ProctorConfig) loadEnv() {
	if v := os.Getenv(EnvProctorDetectInterval); v != "" {
		c.DetectInterval = v
	}
	if v := os.Getenv(EnvProctorCooldown); v != "" {
		c.Cooldown = v
	}
	if v := os.Getenv(EnvProctorFrameMaxAge); v != "" {
		c.FrameMaxAge = v
	}
}

func (c *ProctorConfig) validate() error {
	for name, v := range map[string]string{
		"detect_interval": c.DetectInterval,
		"cooldown":        c.Cooldown,
		"frame_max_age":   c.FrameMaxAge,
	} {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("invalid %s: %q", name, v)
		}
	}
	return nil
}
