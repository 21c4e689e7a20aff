// Package league compares finished leagues with each other: side by side
// summaries, submitters and voters aligned by display name, and songs that
// were submitted in more than one league.
package league

import (
	"errors"
	"strings"

	"github.com/okian/songleague/internal/domain/dataset"
)

// ErrEventCount is returned when a comparison needs a different number of
// leagues than it was given.
var ErrEventCount = errors.New("unexpected number of leagues")

// Event is one league taking part in a comparison.
type Event struct {
	Name     string
	Snapshot *dataset.Snapshot
}

// nameKey normalises a display name for alignment across leagues.
func nameKey(name string) string { return strings.ToLower(name) }

// aligner assigns display names to rows in first-seen order across leagues.
// Names equal up to case share a row, one per league; a second such name in
// the same league gets a row of its own.
type aligner struct {
	filled []map[int]struct{}
	index  map[string][]int
}

func newAligner() *aligner {
	return &aligner{index: make(map[string][]int)}
}

// slot returns the row for name in league, adding a new one when every row
// for name already holds that league.
func (a *aligner) slot(name string, league int) (int, bool) {
	key := nameKey(name)
	for _, i := range a.index[key] {
		if _, taken := a.filled[i][league]; !taken {
			a.filled[i][league] = struct{}{}
			return i, false
		}
	}
	i := len(a.filled)
	a.filled = append(a.filled, map[int]struct{}{league: {}})
	a.index[key] = append(a.index[key], i)
	return i, true
}
