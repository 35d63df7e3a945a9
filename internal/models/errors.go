package models

import "errors"

// Custom errors
var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicateKey         = errors.New("duplicate key violation")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrDataUnavailable      = errors.New("no data available for subject")
	ErrSettlementPending    = errors.New("outcome not yet available")
	ErrRunInProgress        = errors.New("an update run is already in progress for this date")
)
