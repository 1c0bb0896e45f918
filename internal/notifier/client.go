package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/proctor/internal/exams"
	"github.com/JaimeStill/proctor/internal/sessions"
	"github.com/JaimeStill/proctor/pkg/auth"
)

// Source is the read model the notifier polls.
type Source interface {
	Me(ctx context.Context) (*auth.Identity, error)
	Exams(ctx context.Context) ([]exams.Exam, error)
	Sessions(ctx context.Context, examID uuid.UUID) ([]sessions.Session, error)
	Summary(ctx context.Context) (*sessions.Summary, error)
}

// Client reads the proctor API on behalf of a teacher.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// NewClient creates a Client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api".
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		token: token,
		http:  &http.Client{Timeout: timeout},
	}
}

// Me returns the observer identity.
func (c *Client) Me(ctx context.Context) (*auth.Identity, error) {
	var id auth.Identity
	if err := c.get(ctx, "/me", &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Exams returns the exams created by the observer.
func (c *Client) Exams(ctx context.Context) ([]exams.Exam, error) {
	var list []exams.Exam
	err := c.get(ctx, "/exams", &list)
	return list, err
}

// Sessions returns every session of an exam.
func (c *Client) Sessions(ctx context.Context, examID uuid.UUID) ([]sessions.Session, error) {
	var list []sessions.Session
	err := c.get(ctx, "/sessions/exam/"+examID.String(), &list)
	return list, err
}

// Summary returns the suspicious-activity summary across all sessions.
func (c *Client) Summary(ctx context.Context) (*sessions.Summary, error) {
	var s sessions.Summary
	if err := c.get(ctx, "/sessions/summary", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case resp.StatusCode >= 300:
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
