package sessions_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/proctor/internal/proctor"
	"github.com/JaimeStill/proctor/internal/sessions"
	"github.com/JaimeStill/proctor/pkg/pagination"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jpegFrame(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 32, 24)), nil); err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	return buf.Bytes()
}

type memSystem struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*sessions.Session
	order     []uuid.UUID
	appended  []proctor.Delta
	createErr error
}

func newMemSystem() *memSystem {
	return &memSystem{sessions: map[uuid.UUID]*sessions.Session{}}
}

func (m *memSystem) Create(_ context.Context, cmd sessions.CreateCommand) (*sessions.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}

	for _, s := range m.sessions {
		if s.ExamID == cmd.ExamID && s.Subject.Email == cmd.Subject.Email && s.Status == sessions.StatusActive {
			s.Status = sessions.StatusAbandoned
		}
	}

	s := &sessions.Session{
		ID:        uuid.New(),
		ExamID:    cmd.ExamID,
		Subject:   cmd.Subject,
		Status:    sessions.StatusActive,
		Counts:    proctor.NewCounts(),
		Evidence:  []proctor.Evidence{},
		StartedAt: time.Now(),
	}
	m.sessions[s.ID] = s
	m.order = append(m.order, s.ID)

	out := *s
	return &out, nil
}

func (m *memSystem) Append(_ context.Context, id uuid.UUID, delta proctor.Delta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.Status != sessions.StatusActive {
		return sessions.ErrNotFound
	}
	m.appended = append(m.appended, delta)
	s.Counts[delta.Kind]++
	if delta.Evidence != nil {
		s.Evidence = append(s.Evidence, *delta.Evidence)
	}
	return nil
}

func (m *memSystem) Submit(_ context.Context, id uuid.UUID, log proctor.Log) (*sessions.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	if s.Status != sessions.StatusActive {
		return nil, sessions.ErrSubmitted
	}

	now := time.Now()
	s.Counts = log.Counts
	s.Evidence = slices.Clone(log.Evidence)
	s.Status = sessions.StatusSubmitted
	s.SubmittedAt = &now

	out := *s
	return &out, nil
}

func (m *memSystem) Find(_ context.Context, id uuid.UUID) (*sessions.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	out := *s
	return &out, nil
}

func (m *memSystem) ListByExam(_ context.Context, examID uuid.UUID) ([]sessions.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []sessions.Session{}
	for _, id := range m.order {
		if s := m.sessions[id]; s.ExamID == examID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSystem) ListAll(_ context.Context) ([]sessions.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []sessions.Session{}
	for _, id := range m.order {
		out = append(out, *m.sessions[id])
	}
	return out, nil
}

func (m *memSystem) List(ctx context.Context, page pagination.PageRequest, _ sessions.Filters) (*pagination.PageResult[sessions.Session], error) {
	all, _ := m.ListAll(ctx)
	result := pagination.NewPageResult(all, len(all), page.Page, page.PageSize)
	return &result, nil
}

func (m *memSystem) Summary(ctx context.Context, examID *uuid.UUID) (*sessions.Summary, error) {
	var all []sessions.Session
	if examID != nil {
		all, _ = m.ListByExam(ctx, *examID)
	} else {
		all, _ = m.ListAll(ctx)
	}
	s := sessions.Summarize(all)
	return &s, nil
}

func (m *memSystem) appendedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.appended)
}

type fakeDetector struct{}

func (fakeDetector) Detect(context.Context, proctor.Frame) ([]proctor.Detection, error) {
	return nil, nil
}

type memUploader struct {
	mu    sync.Mutex
	names []string
}

func (u *memUploader) Upload(_ context.Context, name string, _ []byte, _ string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.names = append(u.names, name)
	return "/api/storage/evidence/" + name, nil
}

type gauge struct {
	mu    sync.Mutex
	value float64
}

func (g *gauge) Set(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = v
}

func (g *gauge) get() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

type fakeBundler struct{}

func (fakeBundler) Bundle(_ context.Context, items []proctor.Evidence, w io.Writer, _ *slog.Logger) error {
	if len(items) == 0 {
		return errors.New("session has no evidence")
	}
	_, err := io.WriteString(w, "%PDF-1.7 "+strings.Repeat("x", len(items)))
	return err
}

type managerHarness struct {
	sys      *memSystem
	uploader *memUploader
	active   *gauge
	manager  *sessions.Manager
	loads    int
}

func newManager(t *testing.T, loadErr error) *managerHarness {
	t.Helper()

	h := &managerHarness{
		sys:      newMemSystem(),
		uploader: &memUploader{},
		active:   &gauge{},
	}

	h.manager = sessions.NewManager(sessions.Collaborators{
		Sessions: h.sys,
		Uploads:  func(uuid.UUID) proctor.Uploader { return h.uploader },
		Load: func(context.Context) (proctor.Detector, error) {
			h.loads++
			if loadErr != nil {
				return nil, loadErr
			}
			return fakeDetector{}, nil
		},
		Active: h.active,
	}, sessions.Options{Interval: time.Hour}, discard())

	t.Cleanup(h.manager.Shutdown)
	return h
}

var (
	examA = uuid.MustParse("0b7a3c1e-4f57-4a6f-9c1d-2f1e8d6a9b01")
	ada   = proctor.Subject{Name: "Ada Lovelace", Email: "ada@school.edu"}
	alan  = proctor.Subject{Name: "Alan Turing", Email: "alan@school.edu"}
)
