package submitters

import (
	"fmt"

	"github.com/okian/songleague/internal/domain/dataset"
)

// Relationship aggregates every vote one voter cast for one submitter's
// songs.
type Relationship struct {
	VoterID       string  `json:"voter_id"`
	Voter         string  `json:"voter"`
	SubmitterID   string  `json:"submitter_id"`
	Submitter     string  `json:"submitter"`
	TotalPoints   int     `json:"total_points"`
	VoteCount     int     `json:"vote_count"`
	AveragePoints float64 `json:"average_points"`
}

func (r Relationship) counterpart() Counterpart {
	return Counterpart{
		VoterID:       r.VoterID,
		Voter:         r.Voter,
		AveragePoints: r.AveragePoints,
		TotalPoints:   r.TotalPoints,
		VoteCount:     r.VoteCount,
	}
}

type pair struct{ voter, submitter string }

// Relationships returns one row per (voter, submitter) pair that has at least
// one vote, ordered by the first vote of each pair. Votes for songs without a
// submission are skipped.
func Relationships(snap *dataset.Snapshot, opts ...Option) []Relationship {
	return relationships(snap, newOptions(opts))
}

func relationships(snap *dataset.Snapshot, o options) []Relationship {
	index := make(map[pair]int)
	var rows []Relationship
	for _, v := range snap.Votes() {
		if !o.inScope(v.RoundID) {
			continue
		}
		owner, ok := snap.Owner(v.Key())
		if !ok || (o.excludeSelf && owner == v.VoterID) {
			continue
		}
		p := pair{voter: v.VoterID, submitter: owner}
		i, seen := index[p]
		if !seen {
			i = len(rows)
			index[p] = i
			rows = append(rows, Relationship{
				VoterID:     v.VoterID,
				Voter:       snap.DisplayName(v.VoterID),
				SubmitterID: owner,
				Submitter:   snap.DisplayName(owner),
			})
		}
		rows[i].TotalPoints += v.Points
		rows[i].VoteCount++
	}
	for i := range rows {
		rows[i].AveragePoints = float64(rows[i].TotalPoints) / float64(rows[i].VoteCount)
	}
	return rows
}

// Loyalty returns the relationships of one voter: how many points, on
// average, they gave each submitter.
func Loyalty(snap *dataset.Snapshot, voterID string, opts ...Option) ([]Relationship, error) {
	if !snap.HasCompetitor(voterID) {
		return nil, fmt.Errorf("%w: voter %q", dataset.ErrEntityNotFound, voterID)
	}
	var out []Relationship
	for _, r := range Relationships(snap, opts...) {
		if r.VoterID == voterID {
			out = append(out, r)
		}
	}
	return out, nil
}

