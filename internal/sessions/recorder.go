package sessions

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/proctor/internal/proctor"
)

// Recorder persists each accepted violation as it happens.
type Recorder struct {
	sys System
}

// NewRecorder returns a proctor.Recorder that appends to sys.
func NewRecorder(sys System) *Recorder {
	return &Recorder{sys: sys}
}

// Record implements proctor.Recorder.
func (r *Recorder) Record(ctx context.Context, sessionID uuid.UUID, out proctor.Outcome) error {
	return r.sys.Append(ctx, sessionID, out.Delta())
}
