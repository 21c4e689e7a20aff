package voters

import "errors"

// ErrNoVotes is returned for a known competitor who cast no votes in scope.
var ErrNoVotes = errors.New("voter cast no votes")
