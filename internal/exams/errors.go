package exams

import (
	"errors"
	"net/http"
)

// Domain errors for exam operations.
var (
	ErrNotFound    = errors.New("exam not found")
	ErrDuplicate   = errors.New("exam with this name already exists")
	ErrInvalidName = errors.New("exam name required")
)

// MapHTTPStatus maps exam domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidName) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
