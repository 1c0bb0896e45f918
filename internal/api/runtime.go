package api

import (
	"github.com/JaimeStill/proctor/internal/config"
	"github.com/JaimeStill/proctor/internal/events"
	"github.com/JaimeStill/proctor/internal/infrastructure"
	"github.com/JaimeStill/proctor/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination   pagination.Config
	MaxFrameSize int64
	Proctor      config.ProctorConfig
	Events       events.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Verifier:  infra.Verifier,
			Metrics:   infra.Metrics,
		},
		Pagination:   cfg.API.Pagination,
		MaxFrameSize: cfg.API.MaxFrameSizeBytes(),
		Proctor:      cfg.Proctor,
		Events:       cfg.Events,
	}
}
