// Package detector is an HTTP client for the object-detection inference
// service.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/JaimeStill/proctor/internal/proctor"
)

const maxResponseBytes = 1 << 20

// Client posts frames to one inference endpoint.
type Client struct {
	http       *http.Client
	endpoint   string
	healthPath string
	degraded   bool
}

type response struct {
	Detections []proctor.Detection `json:"detections"`
}

// New creates a client for endpoint without probing it.
func New(endpoint string, cfg *Config) *Client {
	return &Client{
		http:       &http.Client{Timeout: cfg.TimeoutDuration()},
		endpoint:   endpoint,
		healthPath: cfg.HealthPath,
	}
}

// Load returns a client for the first endpoint that answers its health
// probe: the primary endpoint, then the fallback. When neither answers it
// returns ErrUnavailable.
func Load(ctx context.Context, cfg *Config, logger *slog.Logger) (*Client, error) {
	logger = logger.With("system", "detector")

	primary := New(cfg.Endpoint, cfg)
	err := primary.Probe(ctx)
	if err == nil {
		return primary, nil
	}
	logger.Warn("primary detector unavailable", "endpoint", cfg.Endpoint, "error", err)

	if cfg.FallbackEndpoint == "" {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	fallback := New(cfg.FallbackEndpoint, cfg)
	fallback.degraded = true
	if ferr := fallback.Probe(ctx); ferr != nil {
		logger.Error("fallback detector unavailable", "endpoint", cfg.FallbackEndpoint, "error", ferr)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ferr)
	}

	logger.Info("using fallback detector", "endpoint", cfg.FallbackEndpoint)
	return fallback, nil
}

// Endpoint returns the inference URL in use.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Degraded reports whether the client targets the fallback endpoint.
func (c *Client) Degraded() bool {
	return c.degraded
}

// Probe checks the endpoint's health route.
func (c *Client) Probe(ctx context.Context) error {
	target, err := c.healthURL()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", target, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("probe %s: status %d", target, resp.StatusCode)
	}
	return nil
}

// Detect implements proctor.Detector.
func (c *Client) Detect(ctx context.Context, frame proctor.Frame) ([]proctor.Detection, error) {
	contentType := frame.ContentType
	if contentType == "" {
		contentType = proctor.DefaultContentType
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(frame.Data))
	if err != nil {
		return nil, fmt.Errorf("build detect request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}

	return body.Detections, nil
}

func (c *Client) healthURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	u.Path = c.healthPath
	u.RawQuery = ""
	return u.String(), nil
}
