package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/proctor/internal/frames"
	"github.com/JaimeStill/proctor/internal/proctor"
	"github.com/JaimeStill/proctor/pkg/lifecycle"
)

// Loader initializes the object detector for a new attempt.
type Loader func(ctx context.Context) (proctor.Detector, error)

// Gauge tracks the number of monitored sessions.
type Gauge interface {
	Set(float64)
}

// Options tunes live session runtimes. Zero values fall back to the
// proctor package defaults; a zero FrameMaxAge never expires frames.
type Options struct {
	Interval    time.Duration
	Cooldown    time.Duration
	FrameMaxAge time.Duration
}

// Collaborators are the systems a Manager wires into each runtime.
// Sink, Observer, and Active are optional.
type Collaborators struct {
	Sessions System
	Uploads  func(sessionID uuid.UUID) proctor.Uploader
	Load     Loader
	Sink     proctor.EventSink
	Observer proctor.Observer
	Active   Gauge
}

type runtime struct {
	session  Session
	mailbox  *frames.Mailbox
	pipeline *proctor.Pipeline
	monitor  *proctor.Monitor
}

func (rt *runtime) stop() {
	rt.monitor.Stop()
	rt.pipeline.Close()
	rt.mailbox.Close()
}

// Manager owns the live runtime of every session being monitored.
type Manager struct {
	c      Collaborators
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	base   context.Context
	active map[uuid.UUID]*runtime
}

// NewManager creates a Manager. Monitors run under context.Background
// until Start binds them to a lifecycle.
func NewManager(c Collaborators, opts Options, logger *slog.Logger) *Manager {
	return &Manager{
		c:      c,
		opts:   opts,
		logger: logger.With("system", "monitor"),
		now:    time.Now,
		base:   context.Background(),
		active: make(map[uuid.UUID]*runtime),
	}
}

// Start binds monitors to the lifecycle context and stops them all on shutdown.
func (m *Manager) Start(lc *lifecycle.Coordinator) error {
	m.mu.Lock()
	m.base = lc.Context()
	m.mu.Unlock()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		m.Shutdown()
	})
	return nil
}

// Begin loads the detector, opens a session, and starts monitoring it.
// A previous live attempt by the same subject at the same exam is torn down.
// No session is created when the detector cannot be loaded.
func (m *Manager) Begin(ctx context.Context, examID uuid.UUID, subject proctor.Subject) (*Session, error) {
	detector, err := m.c.Load(ctx)
	if err != nil {
		m.logger.Error("detector unavailable", "exam_id", examID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	sess, err := m.c.Sessions.Create(ctx, CreateCommand{ExamID: examID, Subject: subject})
	if err != nil {
		return nil, err
	}

	rt := m.build(*sess, detector)

	m.mu.Lock()
	base := m.base
	var replaced []*runtime
	for id, prev := range m.active {
		if prev.session.ExamID == examID && strings.EqualFold(prev.session.Subject.Email, subject.Email) {
			replaced = append(replaced, prev)
			delete(m.active, id)
		}
	}
	m.active[sess.ID] = rt
	m.mu.Unlock()

	for _, prev := range replaced {
		prev.stop()
		m.logger.Info("previous attempt replaced", "session", prev.session.ID, "replacement", sess.ID)
	}

	if err := rt.monitor.Start(base); err != nil {
		return nil, err
	}
	m.report()

	live := rt.snapshot()
	return &live, nil
}

func (m *Manager) build(sess Session, detector proctor.Detector) *runtime {
	mailbox := frames.NewMailbox(m.opts.FrameMaxAge)

	var capturer *proctor.Capturer
	if m.c.Uploads != nil {
		capturer = proctor.NewCapturer(mailbox, m.c.Uploads(sess.ID))
	}

	pipeline := proctor.NewPipeline(proctor.Components{
		SessionID:  sess.ID,
		Gate:       proctor.NewGate(m.opts.Cooldown),
		Capturer:   capturer,
		Aggregator: proctor.NewAggregator(sess.ExamID, sess.Subject),
		Recorder:   NewRecorder(m.c.Sessions),
		Sink:       m.c.Sink,
		Observer:   m.c.Observer,
		Logger:     m.logger,
		Clock:      m.now,
	})
	pipeline.Reset(sess.ExamID, sess.Subject)

	return &runtime{
		session:  sess,
		mailbox:  mailbox,
		pipeline: pipeline,
		monitor:  proctor.NewMonitor(mailbox, detector, pipeline, m.opts.Interval, m.logger),
	}
}

func (rt *runtime) snapshot() Session {
	log := rt.pipeline.Snapshot()
	sess := rt.session
	sess.Counts = log.Counts
	sess.Evidence = log.Evidence
	return sess
}

// owned returns the live runtime of id after checking that owner is its subject.
func (m *Manager) owned(id uuid.UUID, owner string) (*runtime, error) {
	m.mu.Lock()
	rt, ok := m.active[id]
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotActive, id)
	}
	if !strings.EqualFold(rt.session.Subject.Email, owner) {
		return nil, ErrForbidden
	}
	return rt, nil
}

// PushFrame replaces the latest camera frame of a live session.
func (m *Manager) PushFrame(id uuid.UUID, owner string, data []byte, contentType string) (proctor.Frame, error) {
	rt, err := m.owned(id, owner)
	if err != nil {
		return proctor.Frame{}, err
	}

	frame, err := rt.mailbox.Publish(data, contentType, m.now())
	if err != nil {
		return proctor.Frame{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return frame, nil
}

// Detect runs a client-side detection batch through the session pipeline
// and returns the violations it accepted.
func (m *Manager) Detect(ctx context.Context, id uuid.UUID, owner string, detections []proctor.Detection) ([]proctor.Outcome, error) {
	rt, err := m.owned(id, owner)
	if err != nil {
		return nil, err
	}

	outcomes := rt.pipeline.Process(ctx, detections, m.now())
	if outcomes == nil {
		outcomes = []proctor.Outcome{}
	}
	return outcomes, nil
}

// Find returns the live log of a monitored session, or the stored record
// once monitoring has ended.
func (m *Manager) Find(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	rt, ok := m.active[id]
	m.mu.Unlock()

	if ok {
		live := rt.snapshot()
		return &live, nil
	}
	return m.c.Sessions.Find(ctx, id)
}

// Submit stops monitoring and writes the final log. Sessions that lost
// their runtime, after a restart for example, are finalized from storage.
func (m *Manager) Submit(ctx context.Context, id uuid.UUID, owner string) (*Session, error) {
	rt, err := m.owned(id, owner)
	switch {
	case err == nil:
		m.mu.Lock()
		delete(m.active, id)
		m.mu.Unlock()

		rt.stop()
		m.report()

		return m.c.Sessions.Submit(ctx, id, rt.pipeline.Snapshot())

	case errors.Is(err, ErrForbidden):
		return nil, err
	}

	stored, err := m.c.Sessions.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(stored.Subject.Email, owner) {
		return nil, ErrForbidden
	}
	if stored.Status != StatusActive {
		return nil, fmt.Errorf("%w: %s", ErrSubmitted, id)
	}
	return m.c.Sessions.Submit(ctx, id, stored.Log())
}

// Active returns the number of monitored sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Shutdown stops every monitor. Stored sessions stay active with the
// violations recorded so far.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	live := make([]*runtime, 0, len(m.active))
	for id, rt := range m.active {
		live = append(live, rt)
		delete(m.active, id)
	}
	m.mu.Unlock()

	for _, rt := range live {
		rt.stop()
	}
	m.report()

	if len(live) > 0 {
		m.logger.Info("monitors stopped", "count", len(live))
	}
}

func (m *Manager) report() {
	if m.c.Active != nil {
		m.c.Active.Set(float64(m.Active()))
	}
}
