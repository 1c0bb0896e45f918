package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/proctor/pkg/auth"
	"github.com/JaimeStill/proctor/pkg/handlers"
	"github.com/JaimeStill/proctor/pkg/routes"
)

type identityHandler struct {
	logger *slog.Logger
}

func newIdentityHandler(logger *slog.Logger) *identityHandler {
	return &identityHandler{logger: logger.With("handler", "identity")}
}

func (h *identityHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/me",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.me},
		},
	}
}

func (h *identityHandler) me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, errors.New("unauthenticated"))
		return
	}
	handlers.RespondJSON(w, http.StatusOK, id)
}
