package notifier_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/slack-go/slack"

	"github.com/JaimeStill/proctor/internal/exams"
	"github.com/JaimeStill/proctor/internal/notifier"
	"github.com/JaimeStill/proctor/internal/proctor"
	"github.com/JaimeStill/proctor/internal/sessions"
	"github.com/JaimeStill/proctor/pkg/auth"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	mu         sync.Mutex
	role       auth.Role
	exams      []exams.Exam
	sessions   map[uuid.UUID][]sessions.Session
	examsErr   error
	sessionErr map[uuid.UUID]error
	summary    sessions.Summary
}

func (f *fakeSource) Me(context.Context) (*auth.Identity, error) {
	return &auth.Identity{Name: "Grace", Email: "grace@school.edu", Role: f.role}, nil
}

func (f *fakeSource) Exams(context.Context) ([]exams.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exams, f.examsErr
}

func (f *fakeSource) Sessions(_ context.Context, examID uuid.UUID) ([]sessions.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.sessionErr[examID]; err != nil {
		return nil, err
	}
	return f.sessions[examID], nil
}

func (f *fakeSource) Summary(context.Context) (*sessions.Summary, error) {
	return &f.summary, nil
}

type recordingSink struct {
	mu    sync.Mutex
	notes []notifier.Notification
}

func (r *recordingSink) Notify(_ context.Context, n notifier.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
	return nil
}

type failingSink struct{}

func (failingSink) Notify(context.Context, notifier.Notification) error {
	return errors.New("unreachable")
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func session(name string, captured ...time.Duration) sessions.Session {
	s := sessions.Session{
		ID:      uuid.New(),
		Subject: proctor.Subject{Name: name, Email: strings.ToLower(name) + "@school.edu"},
	}
	for _, d := range captured {
		s.Evidence = append(s.Evidence, proctor.Evidence{
			MediaRef:   fmt.Sprintf("/api/storage/evidence/%s-%d.jpg", name, d.Milliseconds()),
			Kind:       proctor.CellPhone,
			CapturedAt: t0.Add(d),
		})
	}
	return s
}

type harness struct {
	source *fakeSource
	sink   *recordingSink
	clock  *clock
	n      *notifier.Notifier

	midterm exams.Exam
	final   exams.Exam
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		source:  &fakeSource{role: auth.RoleTeacher, sessions: map[uuid.UUID][]sessions.Session{}},
		sink:    &recordingSink{},
		clock:   &clock{now: t0},
		midterm: exams.Exam{ID: uuid.New(), Name: "Midterm"},
		final:   exams.Exam{ID: uuid.New(), Name: "Final"},
	}
	h.source.exams = []exams.Exam{h.midterm, h.final}

	h.n = notifier.New(h.source, []notifier.Sink{h.sink, failingSink{}}, notifier.Options{Clock: h.clock.Now}, discard())
	if err := h.n.Activate(context.Background()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	return h
}

func TestActivate(t *testing.T) {
	h := newHarness(t)

	if h.n.State() != notifier.StatePolling {
		t.Errorf("state: got %s, want polling", h.n.State())
	}
	if !h.n.Watermark().Equal(t0) {
		t.Errorf("watermark: got %v, want activation time", h.n.Watermark())
	}

	student := notifier.New(&fakeSource{role: auth.RoleStudent}, nil, notifier.Options{}, discard())
	if err := student.Activate(context.Background()); !errors.Is(err, notifier.ErrForbidden) {
		t.Errorf("student activate: got %v, want ErrForbidden", err)
	}
	if student.State() != notifier.StateIdle {
		t.Errorf("student state: got %s, want idle", student.State())
	}
	if notes := student.Tick(context.Background()); notes != nil {
		t.Errorf("idle tick emitted %d notifications", len(notes))
	}
}

func TestTickEmitsNewestFive(t *testing.T) {
	h := newHarness(t)

	h.source.sessions[h.midterm.ID] = []sessions.Session{
		session("Ada", 1*time.Second, 4*time.Second, 7*time.Second),
		session("Alan", 2*time.Second),
	}
	h.source.sessions[h.final.ID] = []sessions.Session{
		session("Grace", 3*time.Second, 5*time.Second, 6*time.Second),
		session("Edsger", -time.Second),
	}

	now := t0.Add(10 * time.Second)
	h.clock.Set(now)

	notes := h.n.Tick(context.Background())
	if len(notes) != notifier.MaxPerTick {
		t.Fatalf("emitted: got %d, want %d", len(notes), notifier.MaxPerTick)
	}

	want := []time.Duration{7 * time.Second, 6 * time.Second, 5 * time.Second, 4 * time.Second, 3 * time.Second}
	for i, n := range notes {
		if got := n.Evidence.CapturedAt.Sub(t0); got != want[i] {
			t.Errorf("notification %d captured at +%v, want +%v", i, got, want[i])
		}
	}

	if notes[0].Message() != "📱 Cell Phone detected: Ada in Midterm" {
		t.Errorf("message: got %q", notes[0].Message())
	}
	if notes[1].ExamName != "Final" || notes[1].Subject != "Grace" {
		t.Errorf("second notification: got %+v", notes[1])
	}

	if len(h.sink.notes) != notifier.MaxPerTick {
		t.Errorf("sink received %d, want %d", len(h.sink.notes), notifier.MaxPerTick)
	}
	if !h.n.Watermark().Equal(now) {
		t.Errorf("watermark: got %v, want %v", h.n.Watermark(), now)
	}

	h.clock.Set(now.Add(10 * time.Second))
	if again := h.n.Tick(context.Background()); len(again) != 0 {
		t.Errorf("second tick: got %d, want 0", len(again))
	}
	if !h.n.Watermark().Equal(now) {
		t.Error("watermark moved without new evidence")
	}
}

func TestTickSkipsFailedExam(t *testing.T) {
	h := newHarness(t)

	h.source.sessions[h.midterm.ID] = []sessions.Session{session("Ada", time.Second)}
	h.source.sessions[h.final.ID] = []sessions.Session{session("Grace", 2*time.Second)}
	h.source.sessionErr = map[uuid.UUID]error{h.final.ID: errors.New("timeout")}
	h.clock.Set(t0.Add(5 * time.Second))

	notes := h.n.Tick(context.Background())
	if len(notes) != 1 || notes[0].Subject != "Ada" {
		t.Errorf("notifications: got %+v", notes)
	}
}

func TestTickUnauthorized(t *testing.T) {
	h := newHarness(t)
	h.source.examsErr = notifier.ErrUnauthorized
	h.clock.Set(t0.Add(5 * time.Second))

	if notes := h.n.Tick(context.Background()); len(notes) != 0 {
		t.Errorf("unauthorized tick emitted %d", len(notes))
	}
	if len(h.sink.notes) != 0 {
		t.Error("auth failure reached the sink")
	}
	if h.n.State() != notifier.StatePolling {
		t.Errorf("state: got %s, want polling", h.n.State())
	}
	if !h.n.Watermark().Equal(t0) {
		t.Error("watermark moved on failed tick")
	}
}

func TestTickRoleLoss(t *testing.T) {
	h := newHarness(t)
	h.source.examsErr = notifier.ErrForbidden

	h.n.Tick(context.Background())

	if h.n.State() != notifier.StateIdle {
		t.Errorf("state: got %s, want idle", h.n.State())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	source := &fakeSource{role: auth.RoleTeacher}
	n := notifier.New(source, nil, notifier.Options{Interval: time.Millisecond}, discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}
	if n.State() != notifier.StateIdle {
		t.Errorf("state after run: got %s, want idle", n.State())
	}
}

type fakePoster struct {
	channel string
	posts   int
}

func (p *fakePoster) PostMessageContext(_ context.Context, channel string, _ ...slack.MsgOption) (string, string, error) {
	p.channel = channel
	p.posts++
	return channel, "1710406800.000100", nil
}

func TestSlackSink(t *testing.T) {
	poster := &fakePoster{}
	sink := notifier.NewSlackSink(poster, "C123")

	err := sink.Notify(context.Background(), notifier.Notification{
		Evidence: proctor.Evidence{Kind: proctor.NoFace, CapturedAt: t0},
		Subject:  "Ada",
		ExamName: "Midterm",
		Label:    proctor.NoFace.Label(),
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if poster.channel != "C123" || poster.posts != 1 {
		t.Errorf("poster: got %+v", poster)
	}
}

func TestDigest(t *testing.T) {
	poster := &fakePoster{}
	source := &fakeSource{summary: sessions.Summarize([]sessions.Session{session("Ada", time.Second)})}
	source.summary.Counts[proctor.CellPhone] = 1
	source.summary.TotalViolations = 1

	d, err := notifier.NewDigest("0 17 * * 1-5", source, poster, "C999", discard())
	if err != nil {
		t.Fatalf("new digest: %v", err)
	}
	if err := d.Post(context.Background()); err != nil {
		t.Fatalf("post: %v", err)
	}
	if poster.posts != 1 || poster.channel != "C999" {
		t.Errorf("poster: got %+v", poster)
	}

	if _, err := notifier.NewDigest("every tuesday", source, poster, "C999", discard()); err == nil {
		t.Error("expected schedule parse error")
	}
}

func TestFormatSummary(t *testing.T) {
	s := sessions.Summarize(nil)
	text := notifier.FormatSummary(&s)
	if !strings.Contains(text, "0 violations") || !strings.HasSuffix(text, "No flagged sessions.") {
		t.Errorf("empty summary: %q", text)
	}

	s = sessions.Summarize([]sessions.Session{{
		Subject:  proctor.Subject{Name: "Ada", Email: "ada@school.edu"},
		Counts:   proctor.Counts{proctor.MultipleFace: 2},
		Evidence: []proctor.Evidence{},
	}})
	text = notifier.FormatSummary(&s)
	for _, want := range []string{"2 violations", "👥 Multiple Faces: 2", "Ada <ada@school.edu>: 2 violations"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}
