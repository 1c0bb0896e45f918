package repository_test

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/proctor/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
	errNoExam    = errors.New("exam missing")
)

func TestErrorsMap(t *testing.T) {
	other := errors.New("connection reset")
	mapping := repository.Errors{
		NotFound:         errNotFound,
		Duplicate:        errDuplicate,
		MissingReference: errNoExam,
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, errNoExam},
		{"passthrough", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapping.Map(tt.err); got != tt.want {
				t.Errorf("Map(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestMapErrorLeavesForeignKeyUnmapped(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503"}
	if got := repository.MapError(pgErr, errNotFound, errDuplicate); got != pgErr {
		t.Errorf("MapError(23503) should pass through, got %v", got)
	}
}
