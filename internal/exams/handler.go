package exams

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/proctor/pkg/auth"
	"github.com/JaimeStill/proctor/pkg/handlers"
	"github.com/JaimeStill/proctor/pkg/routes"
)

// Handler provides HTTP endpoints for exam operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "exams"),
	}
}

// Routes returns the route group definition for exam endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/exams",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: auth.Require(h.logger, h.List, auth.RoleTeacher)},
			{Method: "POST", Pattern: "", Handler: auth.Require(h.logger, h.Create, auth.RoleTeacher)},
			{Method: "GET", Pattern: "/{id}", Handler: auth.Require(h.logger, h.Find, auth.RoleStudent, auth.RoleTeacher)},
		},
	}
}

// List returns the exams created by the calling teacher.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	exams, err := h.sys.List(r.Context(), id.Email)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, exams)
}

// Find returns a single exam by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	examID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	exam, err := h.sys.Find(r.Context(), examID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, exam)
}

// Create registers an exam owned by the calling teacher.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidName)
		return
	}

	id, _ := auth.FromContext(r.Context())
	cmd.CreatedBy = id.Email

	exam, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, exam)
}
