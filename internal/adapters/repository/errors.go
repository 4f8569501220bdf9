package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrTxDone      = errors.New("transaction already finished")
	ErrTxBusy      = errors.New("calibration transaction already open")
	ErrStoreClosed = errors.New("store closed")
)
