package proctor_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/proctor/internal/proctor"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeFrames struct {
	mu    sync.Mutex
	ready bool
	data  []byte
}

func readyFrames() *fakeFrames {
	return &fakeFrames{ready: true, data: []byte{0xff, 0xd8, 0xff}}
}

func (f *fakeFrames) Frame(context.Context) (proctor.Frame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ready {
		return proctor.Frame{}, false
	}
	return proctor.Frame{Data: f.data, ContentType: "image/jpeg"}, true
}

func (f *fakeFrames) setReady(ready bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready = ready
}

type fakeUploader struct {
	mu    sync.Mutex
	fail  map[proctor.Kind]bool
	names []string
}

func (u *fakeUploader) Upload(_ context.Context, name string, _ []byte, _ string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for kind, fail := range u.fail {
		if fail && strings.HasPrefix(name, "cheating_"+string(kind)+"_") {
			return "", errors.New("upload service unavailable")
		}
	}
	u.names = append(u.names, name)
	return "https://media.test/" + name, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	err      error
	outcomes []proctor.Outcome
}

func (r *fakeRecorder) Record(_ context.Context, _ uuid.UUID, out proctor.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, out)
	return r.err
}

type fakeObserver struct {
	mu         sync.Mutex
	accepted   map[proctor.Kind]int
	suppressed map[proctor.Kind]int
	failed     map[proctor.Kind]int
}

func newObserver() *fakeObserver {
	return &fakeObserver{
		accepted:   map[proctor.Kind]int{},
		suppressed: map[proctor.Kind]int{},
		failed:     map[proctor.Kind]int{},
	}
}

func (o *fakeObserver) Accepted(k proctor.Kind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.accepted[k]++
}

func (o *fakeObserver) Suppressed(k proctor.Kind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suppressed[k]++
}

func (o *fakeObserver) CaptureFailed(k proctor.Kind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed[k]++
}

type harness struct {
	frames   *fakeFrames
	uploader *fakeUploader
	recorder *fakeRecorder
	observer *fakeObserver
	pipeline *proctor.Pipeline
	examID   uuid.UUID
}

func newHarness() *harness {
	h := &harness{
		frames:   readyFrames(),
		uploader: &fakeUploader{fail: map[proctor.Kind]bool{}},
		recorder: &fakeRecorder{},
		observer: newObserver(),
		examID:   uuid.New(),
	}

	h.pipeline = proctor.NewPipeline(proctor.Components{
		SessionID:  uuid.New(),
		Gate:       proctor.NewGate(proctor.Cooldown),
		Capturer:   proctor.NewCapturer(h.frames, h.uploader),
		Aggregator: proctor.NewAggregator(h.examID, proctor.Subject{Name: "Ana", Email: "ana@school.edu"}),
		Recorder:   h.recorder,
		Observer:   h.observer,
		Logger:     discard(),
	})
	return h
}

func person() proctor.Detection {
	return proctor.Detection{Label: proctor.LabelPerson, Confidence: 0.93}
}

func phone() proctor.Detection {
	return proctor.Detection{Label: proctor.LabelCellPhone, Confidence: 0.41}
}
