package sessions

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/proctor/internal/proctor"
	"github.com/JaimeStill/proctor/pkg/pagination"
	"github.com/JaimeStill/proctor/pkg/query"
	"github.com/JaimeStill/proctor/pkg/repository"
)

var dbErrors = repository.Errors{
	NotFound:         ErrNotFound,
	MissingReference: ErrExamNotFound,
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a session repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "sessions"),
		pagination: pagination,
	}
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Session, error) {
	id := uuid.New()

	abandon := `
		UPDATE sessions SET status = 'abandoned'
		WHERE exam_id = $1 AND subject_email = $2 AND status = 'active'`

	insert := `
		INSERT INTO sessions(id, exam_id, subject_name, subject_email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, exam_id, subject_name, subject_email, status,
			no_face, multiple_face, cell_phone, prohibited_object,
			started_at, submitted_at`

	sess, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Session, error) {
		if _, err := tx.ExecContext(ctx, abandon, cmd.ExamID, cmd.Subject.Email); err != nil {
			return Session{}, err
		}
		return repository.QueryOne(
			ctx, tx, insert,
			[]any{id, cmd.ExamID, cmd.Subject.Name, cmd.Subject.Email},
			scanSession,
		)
	})
	if err != nil {
		return nil, dbErrors.Map(err)
	}

	r.logger.Info("session created", "id", sess.ID, "exam_id", sess.ExamID, "subject", sess.Subject.Email)
	return &sess, nil
}

func (r *repo) Append(ctx context.Context, id uuid.UUID, delta proctor.Delta) error {
	col, ok := countColumns[delta.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", proctor.ErrInvalidKind, delta.Kind)
	}

	increment := fmt.Sprintf(
		"UPDATE sessions SET %[1]s = %[1]s + 1 WHERE id = $1 AND status = 'active'",
		col,
	)

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(ctx, tx, increment, id); err != nil {
			return struct{}{}, err
		}
		if delta.Evidence != nil {
			if err := insertEvidence(ctx, tx, id, *delta.Evidence); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return dbErrors.Map(err)
	}

	return nil
}

func (r *repo) Submit(ctx context.Context, id uuid.UUID, log proctor.Log) (*Session, error) {
	current, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusActive {
		return nil, fmt.Errorf("%w: %s", ErrSubmitted, id)
	}

	update := `
		UPDATE sessions SET
			no_face = $2, multiple_face = $3, cell_phone = $4, prohibited_object = $5,
			status = 'submitted', submitted_at = now()
		WHERE id = $1 AND status = 'active'`

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx, update,
			id,
			log.Counts[proctor.NoFace],
			log.Counts[proctor.MultipleFace],
			log.Counts[proctor.CellPhone],
			log.Counts[proctor.ProhibitedObject],
		); err != nil {
			return struct{}{}, err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM evidence WHERE session_id = $1", id); err != nil {
			return struct{}{}, err
		}

		for _, ev := range log.Evidence {
			if err := insertEvidence(ctx, tx, id, ev); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return nil, repository.Errors{NotFound: ErrSubmitted}.Map(err)
	}

	r.logger.Info(
		"session submitted",
		"id", id,
		"violations", log.Counts.Total(),
		"evidence", len(log.Evidence),
	)
	return r.Find(ctx, id)
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Session, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	sess, err := repository.QueryOne(ctx, r.db, q, args, scanSession)
	if err != nil {
		return nil, dbErrors.Map(err)
	}

	list := []Session{sess}
	if err := r.attachEvidence(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *repo) ListByExam(ctx context.Context, examID uuid.UUID) ([]Session, error) {
	return r.listAll(ctx, query.NewBuilder(projection, defaultSort).WhereEquals("ExamID", examID))
}

func (r *repo) ListAll(ctx context.Context) ([]Session, error) {
	return r.listAll(ctx, query.NewBuilder(projection, defaultSort))
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Session], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "SubjectName", "SubjectEmail")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	sessions, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSession)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	if err := r.attachEvidence(ctx, sessions); err != nil {
		return nil, err
	}

	result := pagination.NewPageResult(sessions, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Summary(ctx context.Context, examID *uuid.UUID) (*Summary, error) {
	qb := query.NewBuilder(projection, defaultSort).WhereEquals("ExamID", examID)

	sessions, err := r.listAll(ctx, qb)
	if err != nil {
		return nil, err
	}

	summary := Summarize(sessions)
	return &summary, nil
}

func (r *repo) listAll(ctx context.Context, qb *query.Builder) ([]Session, error) {
	q, args := qb.Build()

	sessions, err := repository.QueryMany(ctx, r.db, q, args, scanSession)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	if err := r.attachEvidence(ctx, sessions); err != nil {
		return nil, err
	}

	if sessions == nil {
		sessions = []Session{}
	}
	return sessions, nil
}

// attachEvidence loads the evidence of every session in one query.
func (r *repo) attachEvidence(ctx context.Context, sessions []Session) error {
	if len(sessions) == 0 {
		return nil
	}

	ids := make([]string, len(sessions))
	index := make(map[uuid.UUID]int, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID.String()
		index[s.ID] = i
	}

	q := `
		SELECT session_id, media_ref, kind, captured_at
		FROM evidence
		WHERE session_id = ANY($1::uuid[])
		ORDER BY captured_at`

	rows, err := repository.QueryMany(ctx, r.db, q, []any{ids}, scanEvidence)
	if err != nil {
		return fmt.Errorf("query evidence: %w", err)
	}

	for _, row := range rows {
		i := index[row.sessionID]
		sessions[i].Evidence = append(sessions[i].Evidence, row.evidence)
	}
	return nil
}

func insertEvidence(ctx context.Context, tx *sql.Tx, sessionID uuid.UUID, ev proctor.Evidence) error {
	_, err := tx.ExecContext(
		ctx,
		"INSERT INTO evidence(session_id, kind, media_ref, captured_at) VALUES ($1, $2, $3, $4)",
		sessionID, string(ev.Kind), ev.MediaRef, ev.CapturedAt,
	)
	return err
}
