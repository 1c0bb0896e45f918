package exams

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/proctor/pkg/query"
	"github.com/JaimeStill/proctor/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates an exam repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "exams"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) List(ctx context.Context, creator string) ([]Exam, error) {
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("CreatedBy", creator).
		Build()

	exams, err := repository.QueryMany(ctx, r.db, q, args, scanExam)
	if err != nil {
		return nil, fmt.Errorf("query exams: %w", err)
	}
	if exams == nil {
		exams = []Exam{}
	}
	return exams, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Exam, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanExam)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Exam, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	q := `
		INSERT INTO exams(id, name, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, name, created_by, created_at`

	e, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Exam, error) {
		return repository.QueryOne(ctx, tx, q, []any{uuid.New(), name, cmd.CreatedBy}, scanExam)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("exam created", "id", e.ID, "name", e.Name, "created_by", e.CreatedBy)
	return &e, nil
}
