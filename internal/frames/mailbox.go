// Package frames holds the latest camera frame pushed by a proctored client.
package frames

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"
	"time"

	"github.com/JaimeStill/proctor/internal/proctor"
)

var (
	// ErrInvalidFrame indicates the pushed bytes are not a decodable image.
	ErrInvalidFrame = errors.New("invalid frame")
	// ErrClosed indicates the mailbox no longer accepts frames.
	ErrClosed = errors.New("frame mailbox closed")
)

// Stats reports mailbox activity.
type Stats struct {
	Published uint64    `json:"published"`
	Dropped   uint64    `json:"dropped"`
	LastSeq   uint64    `json:"last_seq"`
	LastAt    time.Time `json:"last_at"`
}

// Mailbox is a single-slot, overwrite-on-publish frame buffer.
// Readers always see the most recent frame; a frame older than maxAge
// is reported as not ready.
type Mailbox struct {
	mu          sync.Mutex
	frame       proctor.Frame
	has         bool
	consumedSeq uint64
	published   uint64
	dropped     uint64
	closed      bool
	maxAge      time.Duration
	now         func() time.Time
}

// NewMailbox creates an empty mailbox. A zero maxAge disables staleness.
func NewMailbox(maxAge time.Duration) *Mailbox {
	return &Mailbox{
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Publish decodes the image header of data and replaces the current frame.
// A frame that was never read by Frame before being replaced counts as dropped.
func (m *Mailbox) Publish(data []byte, contentType string, at time.Time) (proctor.Frame, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return proctor.Frame{}, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	if contentType == "" {
		contentType = "image/" + format
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return proctor.Frame{}, ErrClosed
	}

	if m.has && m.frame.Seq != m.consumedSeq {
		m.dropped++
	}

	m.published++
	m.frame = proctor.Frame{
		Seq:         m.published,
		CapturedAt:  at,
		Width:       cfg.Width,
		Height:      cfg.Height,
		ContentType: contentType,
		Data:        bytes.Clone(data),
	}
	m.has = true

	return m.frame, nil
}

// Frame returns the current frame if one is present and fresh.
func (m *Mailbox) Frame(_ context.Context) (proctor.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || !m.has {
		return proctor.Frame{}, false
	}
	if m.maxAge > 0 && m.now().Sub(m.frame.CapturedAt) > m.maxAge {
		return proctor.Frame{}, false
	}

	m.consumedSeq = m.frame.Seq
	return m.frame, true
}

// Stats returns a copy of the mailbox counters.
func (m *Mailbox) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		Published: m.published,
		Dropped:   m.dropped,
		LastSeq:   m.frame.Seq,
		LastAt:    m.frame.CapturedAt,
	}
}

// Close discards the current frame and rejects further publishes.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.has = false
	m.frame = proctor.Frame{}
}
