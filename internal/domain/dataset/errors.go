package dataset

import "errors"

var (
	// ErrEntityNotFound is returned when an identifier does not exist in the snapshot.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrMalformed is returned when raw records violate the snapshot invariants.
	ErrMalformed = errors.New("malformed dataset")
)
