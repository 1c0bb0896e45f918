package notifier_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/proctor/internal/exams"
	"github.com/JaimeStill/proctor/internal/notifier"
	"github.com/JaimeStill/proctor/pkg/auth"
)

func TestClient(t *testing.T) {
	examID := uuid.New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer grace-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(auth.Identity{Name: "Grace", Email: "grace@school.edu", Role: auth.RoleTeacher})
	})
	mux.HandleFunc("GET /api/exams", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]exams.Exam{{ID: examID, Name: "Midterm"}})
	})
	mux.HandleFunc("GET /api/sessions/exam/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("GET /api/sessions/summary", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	c := notifier.NewClient(srv.URL+"/api/", "grace-token", time.Second)

	id, err := c.Me(ctx)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if !id.Is(auth.RoleTeacher) || id.Email != "grace@school.edu" {
		t.Errorf("identity: got %+v", id)
	}

	list, err := c.Exams(ctx)
	if err != nil {
		t.Fatalf("exams: %v", err)
	}
	if len(list) != 1 || list[0].ID != examID {
		t.Errorf("exams: got %+v", list)
	}

	if _, err := c.Sessions(ctx, examID); !errors.Is(err, notifier.ErrForbidden) {
		t.Errorf("sessions: got %v, want ErrForbidden", err)
	}
	if _, err := c.Summary(ctx); err == nil || errors.Is(err, notifier.ErrUnauthorized) {
		t.Errorf("summary: got %v, want status error", err)
	}

	bad := notifier.NewClient(srv.URL+"/api", "expired", time.Second)
	if _, err := bad.Me(ctx); !errors.Is(err, notifier.ErrUnauthorized) {
		t.Errorf("expired token: got %v, want ErrUnauthorized", err)
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_NOTIFY_TOKEN", "abc")
	t.Setenv("TEST_NOTIFY_MAX", "3")

	env := &notifier.Env{Token: "TEST_NOTIFY_TOKEN", MaxPerTick: "TEST_NOTIFY_MAX"}

	var cfg notifier.Config
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if cfg.Token != "abc" || cfg.MaxPerTick != 3 {
		t.Errorf("env overrides: got token %q max %d", cfg.Token, cfg.MaxPerTick)
	}
	if cfg.PollIntervalDuration() != notifier.PollInterval {
		t.Errorf("poll interval: got %v", cfg.PollIntervalDuration())
	}
	if cfg.APIURL != "http://localhost:8080/api" || cfg.MQTTEnabled() || cfg.SlackEnabled() {
		t.Errorf("defaults: got %+v", cfg)
	}

	tests := []struct {
		name string
		cfg  notifier.Config
	}{
		{"missing token", notifier.Config{}},
		{"bad interval", notifier.Config{Token: "t", PollInterval: "soon"}},
		{"digest without slack", notifier.Config{Token: "t", DigestSchedule: "0 17 * * *"}},
		{"bad digest", notifier.Config{Token: "t", SlackToken: "x", SlackChannel: "C1", DigestSchedule: "daily"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	overlay := notifier.Config{Token: "t", SlackToken: "x", SlackChannel: "C1", DigestSchedule: "0 17 * * 1-5"}
	var merged notifier.Config
	merged.Merge(&overlay)
	if err := merged.Finalize(nil); err != nil {
		t.Errorf("merged config: %v", err)
	}
}
