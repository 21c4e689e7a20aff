package service

import "errors"

var (
	// ErrInvalidLeague is returned for league names that cannot name a
	// directory under the data dir.
	ErrInvalidLeague = errors.New("invalid league name")
	// ErrUnknownLeague is returned for leagues outside the configured set.
	ErrUnknownLeague = errors.New("unknown league")
	// ErrNotStarted is returned by Submit before Start.
	ErrNotStarted = errors.New("service not started")
)
