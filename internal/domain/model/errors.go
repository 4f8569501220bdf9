package model

import "errors"

// Sentinel kinds for model validation errors.
var (
	ErrInvalidProposition = errors.New("invalid proposition")
	ErrInvalidContext     = errors.New("invalid context")
)
