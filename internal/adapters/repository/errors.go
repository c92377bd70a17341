package repository

import "errors"

// Sentinel kinds for event log errors.
var (
	ErrInvalidStream  = errors.New("invalid stream id")
	ErrMissingEventID = errors.New("event id is required")
)
