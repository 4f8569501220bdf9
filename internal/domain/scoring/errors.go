package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrInvalidTiers = errors.New("invalid tier table")
	ErrNilRegistry  = errors.New("nil evaluator registry")
)
