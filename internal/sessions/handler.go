package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/proctor/internal/proctor"
	"github.com/JaimeStill/proctor/pkg/auth"
	"github.com/JaimeStill/proctor/pkg/handlers"
	"github.com/JaimeStill/proctor/pkg/pagination"
	"github.com/JaimeStill/proctor/pkg/routes"
)

// Bundler renders evidence stills into a single document.
type Bundler interface {
	Bundle(ctx context.Context, items []proctor.Evidence, w io.Writer, logger *slog.Logger) error
}

// Handler provides HTTP endpoints for session operations.
type Handler struct {
	sys          System
	manager      *Manager
	bundler      Bundler
	logger       *slog.Logger
	pagination   pagination.Config
	maxFrameSize int64
}

// StartRequest opens a proctored attempt.
type StartRequest struct {
	ExamID uuid.UUID `json:"exam_id"`
}

// DetectionsRequest carries a client-side detection batch.
type DetectionsRequest struct {
	Detections []proctor.Detection `json:"detections"`
}

// FrameAck acknowledges a pushed frame.
type FrameAck struct {
	Seq        uint64    `json:"seq"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	CapturedAt time.Time `json:"captured_at"`
}

// NewHandler creates a Handler.
func NewHandler(
	sys System,
	manager *Manager,
	bundler Bundler,
	logger *slog.Logger,
	pagination pagination.Config,
	maxFrameSize int64,
) *Handler {
	return &Handler{
		sys:          sys,
		manager:      manager,
		bundler:      bundler,
		logger:       logger.With("handler", "sessions"),
		pagination:   pagination,
		maxFrameSize: maxFrameSize,
	}
}

// Routes returns the route group definition for session endpoints.
func (h *Handler) Routes() routes.Group {
	student := func(fn http.HandlerFunc) http.HandlerFunc {
		return auth.Require(h.logger, fn, auth.RoleStudent)
	}
	teacher := func(fn http.HandlerFunc) http.HandlerFunc {
		return auth.Require(h.logger, fn, auth.RoleTeacher)
	}
	anyone := func(fn http.HandlerFunc) http.HandlerFunc {
		return auth.Require(h.logger, fn, auth.RoleStudent, auth.RoleTeacher)
	}

	return routes.Group{
		Prefix: "/sessions",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: teacher(h.List)},
			{Method: "GET", Pattern: "/all", Handler: teacher(h.ListAll)},
			{Method: "GET", Pattern: "/summary", Handler: teacher(h.Summary)},
			{Method: "GET", Pattern: "/exam/{examId}", Handler: teacher(h.ListByExam)},
			{Method: "GET", Pattern: "/evidence/{id}", Handler: teacher(h.Evidence)},
			{Method: "GET", Pattern: "/{id}", Handler: anyone(h.Find)},
			{Method: "POST", Pattern: "", Handler: student(h.Start)},
			{Method: "POST", Pattern: "/{id}/frames", Handler: student(h.PushFrame)},
			{Method: "POST", Pattern: "/{id}/detections", Handler: student(h.Detections)},
			{Method: "POST", Pattern: "/{id}/submit", Handler: student(h.Submit)},
		},
	}
}

// Start opens a session for the caller and begins monitoring it.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExamID == uuid.Nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	sess, err := h.manager.Begin(r.Context(), req.ExamID, proctor.Subject{
		Name:  id.Name,
		Email: id.Email,
	})
	if err != nil {
		if errors.Is(err, ErrModelUnavailable) {
			err = ErrModelUnavailable
		}
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, sess)
}

// Find returns a session. Students may only read their own.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	sess, err := h.manager.Find(r.Context(), sessionID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	id, _ := auth.FromContext(r.Context())
	if !id.Is(auth.RoleTeacher) && !strings.EqualFold(sess.Subject.Email, id.Email) {
		handlers.RespondError(w, h.logger, http.StatusForbidden, ErrForbidden)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, sess)
}

// PushFrame stores the latest camera frame of the caller's live session.
func (h *Handler) PushFrame(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxFrameSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFrameTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	id, _ := auth.FromContext(r.Context())
	frame, err := h.manager.PushFrame(sessionID, id.Email, data, r.Header.Get("Content-Type"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, FrameAck{
		Seq:        frame.Seq,
		Width:      frame.Width,
		Height:     frame.Height,
		CapturedAt: frame.CapturedAt,
	})
}

// Detections runs a client-side detection batch and returns the accepted
// violations with their warnings.
func (h *Handler) Detections(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req DetectionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	id, _ := auth.FromContext(r.Context())
	outcomes, err := h.manager.Detect(r.Context(), sessionID, id.Email, req.Detections)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, outcomes)
}

// Submit ends the caller's attempt and stores the final log.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	id, _ := auth.FromContext(r.Context())
	sess, err := h.manager.Submit(r.Context(), sessionID, id.Email)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, sess)
}

// Evidence returns every evidence still of a session as one PDF.
func (h *Handler) Evidence(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	sess, err := h.manager.Find(r.Context(), sessionID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	var buf bytes.Buffer
	if err := h.bundler.Bundle(r.Context(), sess.Evidence, &buf, h.logger); err != nil {
		status := http.StatusInternalServerError
		if len(sess.Evidence) == 0 {
			status = http.StatusNotFound
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "evidence-"+sessionID.String()+".pdf"),
	)
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// ListByExam returns every session of an exam.
func (h *Handler) ListByExam(w http.ResponseWriter, r *http.Request) {
	examID, ok := h.pathID(w, r, "examId")
	if !ok {
		return
	}

	sessions, err := h.sys.ListByExam(r.Context(), examID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, sessions)
}

// ListAll returns every session.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sys.ListAll(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, sessions)
}

// List returns a paginated list of sessions with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Summary aggregates suspicious activity, optionally for one exam.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	var examID *uuid.UUID
	if v := r.URL.Query().Get("exam_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
			return
		}
		examID = &id
	}

	summary, err := h.sys.Summary(r.Context(), examID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, summary)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return uuid.Nil, false
	}
	return id, true
}
