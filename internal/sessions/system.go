package sessions

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/proctor/internal/proctor"
	"github.com/JaimeStill/proctor/pkg/pagination"
)

// System defines the durable storage contract for sessions.
type System interface {
	// Create opens a new active session. Earlier active sessions of the same
	// subject and exam are marked abandoned.
	Create(ctx context.Context, cmd CreateCommand) (*Session, error)
	// Append adds one violation to an active session.
	Append(ctx context.Context, id uuid.UUID, delta proctor.Delta) error
	// Submit replaces the stored counts and evidence with log and closes the session.
	Submit(ctx context.Context, id uuid.UUID, log proctor.Log) (*Session, error)

	Find(ctx context.Context, id uuid.UUID) (*Session, error)
	ListByExam(ctx context.Context, examID uuid.UUID) ([]Session, error)
	ListAll(ctx context.Context) ([]Session, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Session], error)

	// Summary aggregates every session, or those of examID when non-nil.
	Summary(ctx context.Context, examID *uuid.UUID) (*Summary, error)
}
