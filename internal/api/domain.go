package api

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/proctor/internal/detector"
	"github.com/JaimeStill/proctor/internal/events"
	"github.com/JaimeStill/proctor/internal/evidence"
	"github.com/JaimeStill/proctor/internal/exams"
	"github.com/JaimeStill/proctor/internal/proctor"
	"github.com/JaimeStill/proctor/internal/sessions"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Exams    exams.System
	Sessions sessions.System
	Monitor  *sessions.Manager
	Evidence *evidence.Store
}

// NewDomain creates all domain systems from the API runtime and registers
// their lifecycle hooks.
func NewDomain(runtime *Runtime) (*Domain, error) {
	db := runtime.Database.Connection()

	examsSystem := exams.New(db, runtime.Logger)
	sessionsSystem := sessions.New(db, runtime.Logger, runtime.Pagination)
	store := evidence.NewStore(runtime.Storage, &runtime.Proctor.Evidence)

	var sink proctor.EventSink
	if runtime.Events.Enabled {
		publisher := events.New(&runtime.Events, runtime.Logger)
		if err := publisher.Start(runtime.Lifecycle); err != nil {
			return nil, fmt.Errorf("events start failed: %w", err)
		}
		sink = publisher
	}

	detectorCfg := runtime.Proctor.Detector
	load := func(ctx context.Context) (proctor.Detector, error) {
		d, err := detector.Load(ctx, &detectorCfg, runtime.Logger)
		if err != nil {
			return nil, err
		}
		return d, nil
	}

	monitor := sessions.NewManager(
		sessions.Collaborators{
			Sessions: sessionsSystem,
			Uploads: func(id uuid.UUID) proctor.Uploader {
				return store.Uploader(id)
			},
			Load:     load,
			Sink:     sink,
			Observer: runtime.Metrics,
			Active:   runtime.Metrics.ActiveSessions(),
		},
		sessions.Options{
			Interval:    runtime.Proctor.DetectIntervalDuration(),
			Cooldown:    runtime.Proctor.CooldownDuration(),
			FrameMaxAge: runtime.Proctor.FrameMaxAgeDuration(),
		},
		runtime.Logger,
	)
	if err := monitor.Start(runtime.Lifecycle); err != nil {
		return nil, fmt.Errorf("monitor start failed: %w", err)
	}

	return &Domain{
		Exams:    examsSystem,
		Sessions: sessionsSystem,
		Monitor:  monitor,
		Evidence: store,
	}, nil
}
