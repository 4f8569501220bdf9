package correlation

import "errors"

// Sentinel kinds for correlation errors.
var (
	ErrInvalidTable = errors.New("invalid strength table")
)
