package proctor

import (
	"context"
	"fmt"
	"time"
)

// DefaultContentType is assumed for frames that do not declare one.
const DefaultContentType = "image/jpeg"

// Frame is a single still from the subject's camera.
type Frame struct {
	Seq         uint64
	CapturedAt  time.Time
	Width       int
	Height      int
	ContentType string
	Data        []byte
}

// FrameSource yields the current frame. ok is false while no usable
// frame is available.
type FrameSource interface {
	Frame(ctx context.Context) (frame Frame, ok bool)
}

// Uploader persists still images and returns a durable reference.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Capturer snapshots the current frame and uploads it as evidence.
type Capturer struct {
	frames   FrameSource
	uploader Uploader
}

// NewCapturer creates a Capturer over frames and uploader.
func NewCapturer(frames FrameSource, uploader Uploader) *Capturer {
	return &Capturer{frames: frames, uploader: uploader}
}

// Capture uploads the current frame as evidence for kind.
// A frame that is not ready yields (nil, nil). Upload failures are
// returned wrapped in ErrCaptureFailed and are not retried.
func (c *Capturer) Capture(ctx context.Context, kind Kind, now time.Time) (*Evidence, error) {
	frame, ok := c.frames.Frame(ctx)
	if !ok || len(frame.Data) == 0 {
		return nil, nil
	}

	contentType := frame.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	ref, err := c.uploader.Upload(ctx, EvidenceName(kind, now), frame.Data, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCaptureFailed, kind, err)
	}

	return &Evidence{
		MediaRef:   ref,
		Kind:       kind,
		CapturedAt: now,
	}, nil
}

// EvidenceName is the file name given to a captured still.
func EvidenceName(kind Kind, at time.Time) string {
	return fmt.Sprintf("cheating_%s_%d.jpg", kind, at.UnixMilli())
}
