package notifier

import "errors"

var (
	// ErrUnauthorized indicates the observer token was rejected. It is
	// logged and never surfaced as a notification.
	ErrUnauthorized = errors.New("observer unauthorized")
	// ErrForbidden indicates the observer no longer holds the teacher role.
	ErrForbidden = errors.New("observer is not a teacher")
)
