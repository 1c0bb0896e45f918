package frames_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"github.com/JaimeStill/proctor/internal/frames"
)

func jpegFrame(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestMailboxEmpty(t *testing.T) {
	m := frames.NewMailbox(0)
	if _, ok := m.Frame(context.Background()); ok {
		t.Error("empty mailbox should not be ready")
	}
}

func TestMailboxLatestWins(t *testing.T) {
	m := frames.NewMailbox(0)
	now := time.Now()

	if _, err := m.Publish(jpegFrame(t, 4, 4), "", now); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := m.Publish(jpegFrame(t, 8, 6), "image/jpeg", now.Add(time.Second)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	frame, ok := m.Frame(context.Background())
	if !ok {
		t.Fatal("frame should be ready")
	}
	if frame.Seq != 2 || frame.Width != 8 || frame.Height != 6 {
		t.Errorf("frame: seq=%d %dx%d", frame.Seq, frame.Width, frame.Height)
	}

	stats := m.Stats()
	if stats.Published != 2 || stats.Dropped != 1 {
		t.Errorf("stats: %+v", stats)
	}
}

func TestMailboxContentTypeFromFormat(t *testing.T) {
	m := frames.NewMailbox(0)
	frame, err := m.Publish(jpegFrame(t, 2, 2), "", time.Now())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if frame.ContentType != "image/jpeg" {
		t.Errorf("content type: got %s", frame.ContentType)
	}
}

func TestMailboxRejectsGarbage(t *testing.T) {
	m := frames.NewMailbox(0)
	if _, err := m.Publish([]byte("not an image"), "image/jpeg", time.Now()); !errors.Is(err, frames.ErrInvalidFrame) {
		t.Errorf("error: got %v, want ErrInvalidFrame", err)
	}
}

func TestMailboxStaleFrame(t *testing.T) {
	m := frames.NewMailbox(50 * time.Millisecond)
	if _, err := m.Publish(jpegFrame(t, 2, 2), "", time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, ok := m.Frame(context.Background()); ok {
		t.Error("stale frame should not be ready")
	}
}

func TestMailboxClose(t *testing.T) {
	m := frames.NewMailbox(0)
	m.Publish(jpegFrame(t, 2, 2), "", time.Now())
	m.Close()

	if _, ok := m.Frame(context.Background()); ok {
		t.Error("closed mailbox should not be ready")
	}
	if _, err := m.Publish(jpegFrame(t, 2, 2), "", time.Now()); !errors.Is(err, frames.ErrClosed) {
		t.Errorf("publish after close: got %v, want ErrClosed", err)
	}
}
