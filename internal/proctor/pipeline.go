package proctor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Recorder persists accepted violations for a session.
type Recorder interface {
	Record(ctx context.Context, sessionID uuid.UUID, out Outcome) error
}

// EventSink publishes accepted violations to downstream consumers.
type EventSink interface {
	Publish(ctx context.Context, sessionID uuid.UUID, out Outcome) error
}

// Observer receives per-kind pipeline counters.
type Observer interface {
	Accepted(kind Kind)
	Suppressed(kind Kind)
	CaptureFailed(kind Kind)
}

type nopObserver struct{}

func (nopObserver) Accepted(Kind)      {}
func (nopObserver) Suppressed(Kind)    {}
func (nopObserver) CaptureFailed(Kind) {}

// Components wires the collaborators of a Pipeline. Recorder, Sink, and
// Observer are optional.
type Components struct {
	SessionID  uuid.UUID
	Gate       *Gate
	Capturer   *Capturer
	Aggregator *Aggregator
	Recorder   Recorder
	Sink       EventSink
	Observer   Observer
	Logger     *slog.Logger
	Clock      func() time.Time
}

// Pipeline runs detection batches through classify, gate, capture,
// aggregate, and the downstream sinks for a single session.
type Pipeline struct {
	sessionID uuid.UUID
	gate      *Gate
	capturer  *Capturer
	agg       *Aggregator
	recorder  Recorder
	sink      EventSink
	observer  Observer
	logger    *slog.Logger
	clock     func() time.Time
}

// NewPipeline assembles a Pipeline from c.
func NewPipeline(c Components) *Pipeline {
	p := &Pipeline{
		sessionID: c.SessionID,
		gate:      c.Gate,
		capturer:  c.Capturer,
		agg:       c.Aggregator,
		recorder:  c.Recorder,
		sink:      c.Sink,
		observer:  c.Observer,
		logger:    c.Logger,
		clock:     c.Clock,
	}

	if p.gate == nil {
		p.gate = NewGate(Cooldown)
	}
	if p.observer == nil {
		p.observer = nopObserver{}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	p.logger = p.logger.With("session", c.SessionID)

	return p
}

// SessionID returns the session the pipeline records into.
func (p *Pipeline) SessionID() uuid.UUID {
	return p.sessionID
}

// Process classifies one frame's detections and handles every event that
// passes the gate. It returns the outcomes applied to the session log.
func (p *Pipeline) Process(ctx context.Context, detections []Detection, now time.Time) []Outcome {
	var outcomes []Outcome

	for _, ev := range Classify(detections, now) {
		if !p.gate.Accept(ev.Kind, ev.OccurredAt) {
			p.observer.Suppressed(ev.Kind)
			p.logger.Debug("violation suppressed by cooldown", "kind", ev.Kind)
			continue
		}

		if out, ok := p.accept(ctx, ev); ok {
			outcomes = append(outcomes, out)
		}
	}

	return outcomes
}

func (p *Pipeline) accept(ctx context.Context, ev Event) (Outcome, bool) {
	p.observer.Accepted(ev.Kind)

	out := Outcome{
		Event:   ev,
		Warning: ev.Kind.Warning(),
	}

	if p.capturer != nil {
		evidence, err := p.capturer.Capture(ctx, ev.Kind, ev.OccurredAt)
		if err != nil {
			p.observer.CaptureFailed(ev.Kind)
			p.logger.Warn("evidence capture failed", "kind", ev.Kind, "error", err)
		}
		out.Evidence = evidence
		out.CaptureErr = err
	}

	return out, p.commit(ctx, out)
}

// Apply adds delta to the session log without consulting the gate.
func (p *Pipeline) Apply(ctx context.Context, delta Delta) bool {
	at := p.clock()
	if delta.Evidence != nil {
		at = delta.Evidence.CapturedAt
	}

	return p.commit(ctx, Outcome{
		Event:    Event{Kind: delta.Kind, OccurredAt: at},
		Evidence: delta.Evidence,
		Warning:  delta.Kind.Warning(),
	})
}

func (p *Pipeline) commit(ctx context.Context, out Outcome) bool {
	if !p.agg.Apply(out.Event.Kind, out.Evidence) {
		p.logger.Debug("session closed, discarding violation", "kind", out.Event.Kind)
		return false
	}

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, p.sessionID, out); err != nil {
			p.logger.Warn("violation not persisted", "kind", out.Event.Kind, "error", err)
		}
	}

	if p.sink != nil {
		if err := p.sink.Publish(ctx, p.sessionID, out); err != nil {
			p.logger.Warn("violation not published", "kind", out.Event.Kind, "error", err)
		}
	}

	return true
}

// Reset starts a fresh attempt: counts and evidence are zeroed, the
// subject is restamped, and the cooldown history is cleared.
func (p *Pipeline) Reset(examID uuid.UUID, subject Subject) {
	p.agg.Reset(examID, subject)
	p.gate.Reset()
}

// Snapshot returns a copy of the session log.
func (p *Pipeline) Snapshot() Log {
	return p.agg.Snapshot()
}

// Close stops the pipeline from applying further violations.
func (p *Pipeline) Close() {
	p.agg.Close()
}
