package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Errors maps classes of database failures to domain errors.
// A nil field leaves the matching failure unchanged.
type Errors struct {
	NotFound         error
	Duplicate        error
	MissingReference error
}

// Map translates err using the configured domain errors.
func (e Errors) Map(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) && e.NotFound != nil {
		return e.NotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && e.Duplicate != nil:
			return e.Duplicate
		case pgErr.Code == pgForeignKeyViolation && e.MissingReference != nil:
			return e.MissingReference
		}
	}

	return err
}

// MapError maps sql.ErrNoRows to notFoundErr and unique violations to
// duplicateErr. Other errors are returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	return Errors{NotFound: notFoundErr, Duplicate: duplicateErr}.Map(err)
}
