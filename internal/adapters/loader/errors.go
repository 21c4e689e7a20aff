package loader

import "errors"

// Sentinel kinds for loader errors.
var (
	ErrLeagueNotFound = errors.New("league not found")
	ErrMissingColumn  = errors.New("missing csv column")
	ErrBadRow         = errors.New("bad csv row")
	ErrFilter         = errors.New("vote filter")
)
