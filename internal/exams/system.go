package exams

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for exam domain operations.
type System interface {
	Handler() *Handler

	// List returns the exams created by creator, newest first.
	List(ctx context.Context, creator string) ([]Exam, error)
	Find(ctx context.Context, id uuid.UUID) (*Exam, error)
	Create(ctx context.Context, cmd CreateCommand) (*Exam, error)
}
