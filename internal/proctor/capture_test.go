package proctor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/JaimeStill/proctor/internal/proctor"
)

func TestCaptureNotReady(t *testing.T) {
	frames := &fakeFrames{}
	uploader := &fakeUploader{}
	c := proctor.NewCapturer(frames, uploader)

	ev, err := c.Capture(context.Background(), proctor.NoFace, t0)
	if ev != nil || err != nil {
		t.Errorf("not ready: got %v, %v; want nil, nil", ev, err)
	}
	if len(uploader.names) != 0 {
		t.Error("uploader should not be called when no frame is ready")
	}
}

func TestCaptureUploadFailure(t *testing.T) {
	uploader := &fakeUploader{fail: map[proctor.Kind]bool{proctor.NoFace: true}}
	c := proctor.NewCapturer(readyFrames(), uploader)

	ev, err := c.Capture(context.Background(), proctor.NoFace, t0)
	if ev != nil {
		t.Errorf("evidence: got %+v, want nil", ev)
	}
	if !errors.Is(err, proctor.ErrCaptureFailed) {
		t.Errorf("error: got %v, want ErrCaptureFailed", err)
	}
}

func TestCaptureSuccess(t *testing.T) {
	uploader := &fakeUploader{}
	c := proctor.NewCapturer(readyFrames(), uploader)

	ev, err := c.Capture(context.Background(), proctor.CellPhone, t0)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	wantName := proctor.EvidenceName(proctor.CellPhone, t0)
	if wantName != "cheating_cellPhone_1773478800000.jpg" {
		t.Errorf("name: got %s", wantName)
	}
	if ev.MediaRef != "https://media.test/"+wantName {
		t.Errorf("media ref: got %s", ev.MediaRef)
	}
	if ev.Kind != proctor.CellPhone || !ev.CapturedAt.Equal(t0) {
		t.Errorf("evidence: got %+v", ev)
	}
}
