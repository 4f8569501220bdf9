package model

import "time"

// Weight bounds enforced by the calibrator on every adjustment.
const (
	MinEvaluatorWeight = 0.1
	MaxEvaluatorWeight = 5.0
)

// EvaluatorWeight is the long-lived influence of one evaluator. It is
// mutated exclusively by the calibrator and read once per scoring session
// as an immutable snapshot.
type EvaluatorWeight struct {
	Evaluator string
	Weight    float64 // within [MinEvaluatorWeight, MaxEvaluatorWeight]
	Period    string  // last calibration period applied
	Samples   int64   // cumulative sample count across periods
	Accuracy  float64 // cumulative hit rate across periods
	UpdatedAt time.Time
}

// Audit reasons recorded with every adjustment, applied or skipped.
const (
	ReasonCalibrated        = "calibrated"
	ReasonInsufficientData  = "insufficient data"
	ReasonAlreadyCalibrated = "already calibrated"
)

// AdjustmentRecord is an append-only audit entry for one calibration
// decision. Records are never mutated or deleted.
type AdjustmentRecord struct {
	ID             string
	Evaluator      string
	Period         string
	OldWeight      float64
	NewWeight      float64
	Delta          float64
	Accuracy       float64
	Overconfidence float64
	SampleSize     int
	Reason         string
	CreatedAt      time.Time
}
