package calibration

import "errors"

// Sentinel kinds for calibration errors.
var (
	ErrNilStore            = errors.New("nil weight store")
	ErrInvalidPeriod       = errors.New("invalid calibration period")
	ErrCalibrationInFlight = errors.New("calibration already in flight")
)
