package detector

import "errors"

var (
	// ErrUnavailable indicates neither the primary nor the fallback model
	// endpoint could be loaded.
	ErrUnavailable = errors.New("failed to load detection model, reload and try again")
	// ErrBadResponse indicates the inference service returned an unusable reply.
	ErrBadResponse = errors.New("invalid detector response")
)
