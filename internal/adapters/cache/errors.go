package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrUnknownBackend = errors.New("unknown cache backend")
	ErrCorrupt        = errors.New("corrupt cache entry")
)
