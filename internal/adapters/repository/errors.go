package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound    = errors.New("league not found")
	ErrInvalidName = errors.New("invalid league name")
)
