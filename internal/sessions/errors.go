package sessions

import (
	"errors"
	"net/http"
)

// Domain errors for session operations.
var (
	ErrNotFound         = errors.New("session not found")
	ErrExamNotFound     = errors.New("exam not found")
	ErrSubmitted        = errors.New("session already submitted")
	ErrNotActive        = errors.New("session is not being monitored")
	ErrForbidden        = errors.New("session belongs to another student")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrFrameTooLarge    = errors.New("frame exceeds maximum size")
	ErrModelUnavailable = errors.New("failed to load detection model, reload and try again")
)

// MapHTTPStatus maps session domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrExamNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSubmitted), errors.Is(err, ErrNotActive):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrFrameTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrModelUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
