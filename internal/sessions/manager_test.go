package sessions_test

import (
	"context"
	"errors"
	"testing"

	"github.com/JaimeStill/proctor/internal/proctor"
	"github.com/JaimeStill/proctor/internal/sessions"
)

func TestBeginModelUnavailable(t *testing.T) {
	h := newManager(t, errors.New("connection refused"))

	_, err := h.manager.Begin(context.Background(), examA, ada)
	if !errors.Is(err, sessions.ErrModelUnavailable) {
		t.Fatalf("error: got %v, want ErrModelUnavailable", err)
	}
	if got := sessions.MapHTTPStatus(err); got != 503 {
		t.Errorf("status: got %d, want 503", got)
	}

	all, _ := h.sys.ListAll(context.Background())
	if len(all) != 0 {
		t.Errorf("sessions created: %d, want 0", len(all))
	}
	if h.manager.Active() != 0 {
		t.Errorf("active runtimes: %d, want 0", h.manager.Active())
	}
}

func TestBeginStartsMonitoring(t *testing.T) {
	h := newManager(t, nil)

	sess, err := h.manager.Begin(context.Background(), examA, ada)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	if sess.Status != sessions.StatusActive {
		t.Errorf("status: got %s", sess.Status)
	}
	if sess.Counts.Total() != 0 || len(sess.Evidence) != 0 {
		t.Errorf("new session not empty: %+v", sess)
	}
	if h.manager.Active() != 1 || h.active.get() != 1 {
		t.Errorf("active: manager %d gauge %v", h.manager.Active(), h.active.get())
	}
}

func TestBeginReplacesPreviousAttempt(t *testing.T) {
	h := newManager(t, nil)
	ctx := context.Background()

	first, _ := h.manager.Begin(ctx, examA, ada)
	other, _ := h.manager.Begin(ctx, examA, alan)
	second, err := h.manager.Begin(ctx, examA, ada)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	if h.manager.Active() != 2 {
		t.Fatalf("active: got %d, want 2", h.manager.Active())
	}

	if _, err := h.manager.Detect(ctx, first.ID, ada.Email, nil); !errors.Is(err, sessions.ErrNotActive) {
		t.Errorf("replaced runtime: got %v, want ErrNotActive", err)
	}
	if _, err := h.manager.Detect(ctx, other.ID, alan.Email, nil); err != nil {
		t.Errorf("other subject affected: %v", err)
	}

	stored, _ := h.sys.Find(ctx, first.ID)
	if stored.Status != sessions.StatusAbandoned {
		t.Errorf("first attempt status: got %s, want abandoned", stored.Status)
	}
	if second.ID == first.ID {
		t.Error("second attempt reused the session id")
	}
}

func TestDetectRecordsAcceptedViolations(t *testing.T) {
	h := newManager(t, nil)
	ctx := context.Background()

	sess, _ := h.manager.Begin(ctx, examA, ada)

	if _, err := h.manager.PushFrame(sess.ID, ada.Email, jpegFrame(t), "image/jpeg"); err != nil {
		t.Fatalf("push frame: %v", err)
	}

	phone := []proctor.Detection{
		{Label: "person", Confidence: 0.9},
		{Label: "cell phone", Confidence: 0.4},
	}

	outcomes, err := h.manager.Detect(ctx, sess.ID, ada.Email, phone)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Event.Kind != proctor.CellPhone {
		t.Fatalf("outcomes: got %+v", outcomes)
	}
	if outcomes[0].Evidence == nil {
		t.Fatal("expected evidence for a ready frame")
	}
	if outcomes[0].Warning.Title != "Cell Phone Detected" {
		t.Errorf("warning: got %q", outcomes[0].Warning.Title)
	}

	again, _ := h.manager.Detect(ctx, sess.ID, ada.Email, phone)
	if len(again) != 0 {
		t.Errorf("cooldown: got %d outcomes, want 0", len(again))
	}

	if h.sys.appendedCount() != 1 {
		t.Errorf("appended: got %d, want 1", h.sys.appendedCount())
	}

	live, err := h.manager.Find(ctx, sess.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if live.Counts[proctor.CellPhone] != 1 || len(live.Evidence) != 1 {
		t.Errorf("live log: counts %v evidence %d", live.Counts, len(live.Evidence))
	}
}

func TestOwnership(t *testing.T) {
	h := newManager(t, nil)
	ctx := context.Background()

	sess, _ := h.manager.Begin(ctx, examA, ada)

	if _, err := h.manager.PushFrame(sess.ID, alan.Email, jpegFrame(t), ""); !errors.Is(err, sessions.ErrForbidden) {
		t.Errorf("push: got %v, want ErrForbidden", err)
	}
	if _, err := h.manager.Detect(ctx, sess.ID, alan.Email, nil); !errors.Is(err, sessions.ErrForbidden) {
		t.Errorf("detect: got %v, want ErrForbidden", err)
	}
	if _, err := h.manager.Submit(ctx, sess.ID, alan.Email); !errors.Is(err, sessions.ErrForbidden) {
		t.Errorf("submit: got %v, want ErrForbidden", err)
	}
	if _, err := h.manager.PushFrame(sess.ID, "ADA@school.edu", jpegFrame(t), ""); err != nil {
		t.Errorf("email match should ignore case: %v", err)
	}
}

func TestPushFrameRejectsGarbage(t *testing.T) {
	h := newManager(t, nil)
	sess, _ := h.manager.Begin(context.Background(), examA, ada)

	_, err := h.manager.PushFrame(sess.ID, ada.Email, []byte("not an image"), "image/jpeg")
	if !errors.Is(err, sessions.ErrInvalidRequest) {
		t.Errorf("error: got %v, want ErrInvalidRequest", err)
	}
}

func TestSubmitWritesSnapshot(t *testing.T) {
	h := newManager(t, nil)
	ctx := context.Background()

	sess, _ := h.manager.Begin(ctx, examA, ada)
	h.manager.Detect(ctx, sess.ID, ada.Email, nil)
	h.manager.Detect(ctx, sess.ID, ada.Email, []proctor.Detection{{Label: "book"}, {Label: "person"}})

	final, err := h.manager.Submit(ctx, sess.ID, ada.Email)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if final.Status != sessions.StatusSubmitted || final.SubmittedAt == nil {
		t.Errorf("final status: %s submitted_at %v", final.Status, final.SubmittedAt)
	}
	if final.Counts[proctor.NoFace] != 1 || final.Counts[proctor.ProhibitedObject] != 1 {
		t.Errorf("final counts: %v", final.Counts)
	}
	if h.manager.Active() != 0 || h.active.get() != 0 {
		t.Errorf("runtime still active after submit")
	}

	if _, err := h.manager.Submit(ctx, sess.ID, ada.Email); !errors.Is(err, sessions.ErrSubmitted) {
		t.Errorf("second submit: got %v, want ErrSubmitted", err)
	}
}

func TestSubmitWithoutRuntime(t *testing.T) {
	h := newManager(t, nil)
	ctx := context.Background()

	sess, _ := h.manager.Begin(ctx, examA, ada)
	h.manager.Detect(ctx, sess.ID, ada.Email, nil)
	h.manager.Shutdown()

	final, err := h.manager.Submit(ctx, sess.ID, ada.Email)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if final.Counts[proctor.NoFace] != 1 {
		t.Errorf("stored counts not kept: %v", final.Counts)
	}
}

func TestShutdownStopsEveryMonitor(t *testing.T) {
	h := newManager(t, nil)
	ctx := context.Background()

	a, _ := h.manager.Begin(ctx, examA, ada)
	h.manager.Begin(ctx, examA, alan)
	h.manager.Shutdown()

	if h.manager.Active() != 0 {
		t.Errorf("active after shutdown: %d", h.manager.Active())
	}
	if _, err := h.manager.Detect(ctx, a.ID, ada.Email, nil); !errors.Is(err, sessions.ErrNotActive) {
		t.Errorf("detect after shutdown: got %v, want ErrNotActive", err)
	}

	stored, _ := h.sys.Find(ctx, a.ID)
	if stored.Status != sessions.StatusActive {
		t.Errorf("stored status: got %s, want active", stored.Status)
	}
}
