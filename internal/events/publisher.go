// Package events publishes accepted violations to Kafka for downstream
// consumers such as grading or audit pipelines.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/JaimeStill/proctor/internal/proctor"
	"github.com/JaimeStill/proctor/pkg/lifecycle"
)

// Writer is the subset of kafka.Writer used by Publisher.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Violation is the message value written for each accepted violation.
type Violation struct {
	SessionID  uuid.UUID    `json:"session_id"`
	Kind       proctor.Kind `json:"kind"`
	Label      string       `json:"label"`
	OccurredAt time.Time    `json:"occurred_at"`
	MediaRef   string       `json:"media_ref,omitempty"`
	Captured   bool         `json:"captured"`
}

// Publisher implements proctor.EventSink over a Kafka topic. Messages are
// keyed by session so one session's violations stay ordered.
type Publisher struct {
	writer Writer
	logger *slog.Logger
}

// New creates a Publisher writing to the configured brokers and topic.
func New(cfg *Config, logger *slog.Logger) *Publisher {
	return NewWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}, logger)
}

// NewWithWriter creates a Publisher over an existing writer.
func NewWithWriter(w Writer, logger *slog.Logger) *Publisher {
	return &Publisher{
		writer: w,
		logger: logger.With("system", "events"),
	}
}

// Start registers a shutdown hook that flushes and closes the writer.
func (p *Publisher) Start(lc *lifecycle.Coordinator) error {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := p.writer.Close(); err != nil {
			p.logger.Error("kafka writer close failed", "error", err)
			return
		}
		p.logger.Info("kafka writer closed")
	})
	return nil
}

// Publish implements proctor.EventSink.
func (p *Publisher) Publish(ctx context.Context, sessionID uuid.UUID, out proctor.Outcome) error {
	v := Violation{
		SessionID:  sessionID,
		Kind:       out.Event.Kind,
		Label:      out.Event.Kind.Label(),
		OccurredAt: out.Event.OccurredAt,
		Captured:   out.Evidence != nil,
	}
	if out.Evidence != nil {
		v.MediaRef = out.Evidence.MediaRef
	}

	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode violation: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(sessionID.String()),
		Value: value,
		Time:  out.Event.OccurredAt,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish violation: %w", err)
	}
	return nil
}
