package api

import (
	"net/http"

	"github.com/JaimeStill/proctor/internal/sessions"
	"github.com/JaimeStill/proctor/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	sessionsHandler := sessions.NewHandler(
		domain.Sessions,
		domain.Monitor,
		domain.Evidence,
		runtime.Logger,
		runtime.Pagination,
		runtime.MaxFrameSize,
	)

	routes.Register(
		mux,
		newIdentityHandler(runtime.Logger).routes(),
		domain.Exams.Handler().Routes(),
		sessionsHandler.Routes(),
		newStorageHandler(runtime.Storage, runtime.Logger).routes(),
	)
}
