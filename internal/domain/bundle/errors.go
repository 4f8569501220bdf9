package bundle

import "errors"

// Sentinel kinds for bundle building errors.
var (
	ErrInvalidSize      = errors.New("invalid bundle size")
	ErrInvalidThreshold = errors.New("invalid confidence threshold")
)
