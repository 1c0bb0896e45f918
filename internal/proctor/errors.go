package proctor

import "errors"

var (
	// ErrInvalidKind indicates an unknown violation kind.
	ErrInvalidKind = errors.New("invalid violation kind")
	// ErrCaptureFailed wraps uploader failures during evidence capture.
	ErrCaptureFailed = errors.New("evidence capture failed")
	// ErrMonitorRunning indicates Start was called on a running monitor.
	ErrMonitorRunning = errors.New("monitor already running")
)
