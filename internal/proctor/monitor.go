package proctor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DetectInterval is the cadence of the detection loop.
const DetectInterval = 1000 * time.Millisecond

// Detector runs object detection on a frame.
type Detector interface {
	Detect(ctx context.Context, frame Frame) ([]Detection, error)
}

// Monitor drives a Pipeline from a FrameSource on a fixed cadence.
// At most one tick is in flight at a time; ticks that arrive while the
// previous one is still running are skipped.
type Monitor struct {
	frames   FrameSource
	detector Detector
	pipeline *Pipeline
	interval time.Duration
	logger   *slog.Logger
	clock    func() time.Time

	inFlight atomic.Bool
	skipped  atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a Monitor. A non-positive interval falls back to
// DetectInterval.
func NewMonitor(frames FrameSource, detector Detector, pipeline *Pipeline, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = DetectInterval
	}
	return &Monitor{
		frames:   frames,
		detector: detector,
		pipeline: pipeline,
		interval: interval,
		logger:   logger.With("session", pipeline.SessionID()),
		clock:    time.Now,
	}
}

// Start launches the detection loop. The loop ends when ctx is cancelled
// or Stop is called.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return ErrMonitorRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.run(ctx, m.done)

	m.logger.Info("detection loop started", "interval", m.interval)
	return nil
}

// Stop cancels the loop and waits for it to exit. A tick still in flight
// may complete afterwards; its results are discarded once the pipeline
// is closed.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	m.logger.Info("detection loop stopped", "skipped_ticks", m.skipped.Load())
}

// Running reports whether the loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go m.Tick(ctx)
		}
	}
}

// Tick performs one detection pass. It returns false when the pass was
// skipped because another pass is still in flight.
func (m *Monitor) Tick(ctx context.Context) bool {
	if !m.inFlight.CompareAndSwap(false, true) {
		m.skipped.Add(1)
		return false
	}
	defer m.inFlight.Store(false)

	frame, ok := m.frames.Frame(ctx)
	if !ok {
		return true
	}

	detections, err := m.detector.Detect(ctx, frame)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Warn("detection failed", "error", err)
		}
		return true
	}

	m.pipeline.Process(ctx, detections, m.clock())
	return true
}
