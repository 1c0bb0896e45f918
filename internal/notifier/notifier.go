// Package notifier polls session storage on behalf of a teacher and emits
// a notification for every new evidence still.
package notifier

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/proctor/internal/exams"
	"github.com/JaimeStill/proctor/internal/proctor"
	"github.com/JaimeStill/proctor/internal/sessions"
	"github.com/JaimeStill/proctor/pkg/auth"
)

const (
	// PollInterval is the default cadence of Run.
	PollInterval = 10 * time.Second
	// MaxPerTick bounds the notifications emitted by one tick.
	MaxPerTick = 5
	// FetchConcurrency bounds the per-exam session fetches of one tick.
	FetchConcurrency = 4
)

// States and events of the notifier machine.
const (
	StateIdle    = "idle"
	StatePolling = "polling"

	eventActivate   = "activate"
	eventDeactivate = "deactivate"
)

// Notification announces one new evidence still to a teacher.
type Notification struct {
	Evidence  proctor.Evidence `json:"evidence"`
	SessionID uuid.UUID        `json:"session_id"`
	Subject   string           `json:"subject"`
	ExamID    uuid.UUID        `json:"exam_id"`
	ExamName  string           `json:"exam_name"`
	Label     string           `json:"label"`
}

// Message renders the notification as a single line.
func (n Notification) Message() string {
	return fmt.Sprintf("%s detected: %s in %s", n.Label, n.Subject, n.ExamName)
}

// Sink delivers notifications.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// Options tunes a Notifier. Zero values fall back to the package defaults.
type Options struct {
	Interval    time.Duration
	MaxPerTick  int
	Concurrency int
	Clock       func() time.Time
}

// Notifier tracks a watermark and emits notifications for evidence newer
// than it. The watermark lives in memory only and starts at activation.
type Notifier struct {
	source Source
	sinks  []Sink
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	machine   *fsm.FSM
	watermark time.Time
}

// New creates an idle Notifier.
func New(source Source, sinks []Sink, opts Options, logger *slog.Logger) *Notifier {
	if opts.Interval <= 0 {
		opts.Interval = PollInterval
	}
	if opts.MaxPerTick <= 0 {
		opts.MaxPerTick = MaxPerTick
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = FetchConcurrency
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	machine := fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventActivate, Src: []string{StateIdle}, Dst: StatePolling},
			{Name: eventDeactivate, Src: []string{StatePolling}, Dst: StateIdle},
		},
		fsm.Callbacks{},
	)

	return &Notifier{
		source:  source,
		sinks:   sinks,
		opts:    opts,
		logger:  logger.With("system", "notifier"),
		machine: machine,
	}
}

// State returns the current machine state.
func (n *Notifier) State() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.machine.Current()
}

// Watermark returns the capture time below which evidence is considered seen.
func (n *Notifier) Watermark() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.watermark
}

// Activate resolves the observer role and starts polling when it is a
// teacher. The watermark is set to the activation time.
func (n *Notifier) Activate(ctx context.Context) error {
	id, err := n.source.Me(ctx)
	if err != nil {
		return fmt.Errorf("resolve observer: %w", err)
	}
	if !id.Is(auth.RoleTeacher) {
		return ErrForbidden
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.machine.Is(StatePolling) {
		return nil
	}
	if err := n.machine.Event(ctx, eventActivate); err != nil {
		return err
	}
	n.watermark = n.opts.Clock()

	n.logger.Info("polling activated", "observer", id.Email, "interval", n.opts.Interval)
	return nil
}

// Deactivate stops polling. It is a no-op when already idle.
func (n *Notifier) Deactivate(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.machine.Can(eventDeactivate) {
		n.machine.Event(ctx, eventDeactivate)
		n.logger.Info("polling deactivated")
	}
}

// Run activates the notifier and ticks until ctx is cancelled or the
// observer loses the teacher role.
func (n *Notifier) Run(ctx context.Context) error {
	if err := n.Activate(ctx); err != nil {
		return err
	}
	defer n.Deactivate(context.WithoutCancel(ctx))

	ticker := time.NewTicker(n.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n.Tick(ctx)
			if n.State() != StatePolling {
				return ErrForbidden
			}
		}
	}
}

type examSessions struct {
	exam     exams.Exam
	sessions []sessions.Session
	err      error
}

// Tick performs one poll and returns the notifications it emitted.
// Source failures are logged and yield no notifications.
func (n *Notifier) Tick(ctx context.Context) []Notification {
	if n.State() != StatePolling {
		return nil
	}

	now := n.opts.Clock()
	watermark := n.Watermark()

	list, err := n.source.Exams(ctx)
	if err != nil {
		n.sourceFailed(ctx, err)
		return nil
	}

	results := n.fetch(ctx, list)

	var (
		fresh        []Notification
		unauthorized bool
	)
	for _, r := range results {
		if r.err != nil {
			if errors.Is(r.err, ErrUnauthorized) {
				unauthorized = true
				continue
			}
			n.logger.Warn("session fetch failed", "exam_id", r.exam.ID, "error", r.err)
			continue
		}
		fresh = append(fresh, collect(r.exam, r.sessions, watermark)...)
	}
	if unauthorized {
		n.logger.Warn("observer unauthorized, skipping exams")
	}

	if len(fresh) == 0 {
		return nil
	}

	slices.SortStableFunc(fresh, func(a, b Notification) int {
		return cmp.Compare(b.Evidence.CapturedAt.UnixNano(), a.Evidence.CapturedAt.UnixNano())
	})

	n.mu.Lock()
	n.watermark = now
	n.mu.Unlock()

	if len(fresh) > n.opts.MaxPerTick {
		n.logger.Debug("notifications dropped", "count", len(fresh)-n.opts.MaxPerTick)
		fresh = fresh[:n.opts.MaxPerTick]
	}

	for _, note := range fresh {
		n.emit(ctx, note)
	}
	return fresh
}

func (n *Notifier) fetch(ctx context.Context, list []exams.Exam) []examSessions {
	results := make([]examSessions, len(list))

	var g errgroup.Group
	g.SetLimit(n.opts.Concurrency)

	for i, exam := range list {
		g.Go(func() error {
			s, err := n.source.Sessions(ctx, exam.ID)
			results[i] = examSessions{exam: exam, sessions: s, err: err}
			return nil
		})
	}
	g.Wait()

	return results
}

func (n *Notifier) sourceFailed(ctx context.Context, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		n.logger.Warn("observer unauthorized, skipping tick")
	case errors.Is(err, ErrForbidden):
		n.logger.Warn("observer lost teacher role")
		n.Deactivate(ctx)
	default:
		n.logger.Error("exam fetch failed", "error", err)
	}
}

func (n *Notifier) emit(ctx context.Context, note Notification) {
	for _, sink := range n.sinks {
		if err := sink.Notify(ctx, note); err != nil {
			n.logger.Warn("notification not delivered", "sink", fmt.Sprintf("%T", sink), "error", err)
		}
	}
}

func collect(exam exams.Exam, list []sessions.Session, watermark time.Time) []Notification {
	var out []Notification
	for _, s := range list {
		for _, ev := range s.Evidence {
			if !ev.CapturedAt.After(watermark) {
				continue
			}
			out = append(out, Notification{
				Evidence:  ev,
				SessionID: s.ID,
				Subject:   s.Subject.Name,
				ExamID:    exam.ID,
				ExamName:  exam.Name,
				Label:     ev.Kind.Label(),
			})
		}
	}
	return out
}
