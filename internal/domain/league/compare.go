package league

import (
	"fmt"

	"github.com/okian/songleague/internal/domain/submitters"
	"github.com/okian/songleague/internal/domain/voters"
)

// SubmitterSide is a submitter's performance in one of the compared leagues.
type SubmitterSide struct {
	SubmitterID    string  `json:"submitter_id"`
	Submissions    int     `json:"submissions"`
	AveragePoints  float64 `json:"average_points"`
	ConsistencyStd float64 `json:"consistency_std"`
	Underdog       float64 `json:"underdog"`
}

// SubmitterComparison aligns one submitter across two leagues. A side is nil
// when the name does not appear in that league. Delta is the second average
// minus the first and is nil unless both sides are present.
type SubmitterComparison struct {
	Name     string         `json:"name"`
	First    *SubmitterSide `json:"first"`
	Second   *SubmitterSide `json:"second"`
	Delta    *float64       `json:"delta"`
	Improved bool           `json:"improved"`
}

// CompareSubmitters aligns the submitters of exactly two leagues by
// case-insensitive display name. Rows follow the first league's competitor
// order, then names only found in the second league. Competitors of one
// league whose names differ only by case keep separate rows, matched in
// competitor order.
func CompareSubmitters(events []Event) ([]SubmitterComparison, error) {
	if len(events) != 2 {
		return nil, fmt.Errorf("compare submitters across %d leagues: %w", len(events), ErrEventCount)
	}

	names := newAligner()
	var rows []SubmitterComparison
	for i, ev := range events {
		for _, m := range submitters.All(ev.Snapshot) {
			idx, added := names.slot(m.Submitter, i)
			if added {
				rows = append(rows, SubmitterComparison{Name: m.Submitter})
			}
			side := &SubmitterSide{
				SubmitterID:    m.SubmitterID,
				Submissions:    m.Submissions,
				AveragePoints:  m.AveragePoints,
				ConsistencyStd: m.ConsistencyStd,
				Underdog:       m.Underdog,
			}
			if i == 0 {
				rows[idx].First = side
			} else {
				rows[idx].Second = side
			}
		}
	}

	for i := range rows {
		if rows[i].First == nil || rows[i].Second == nil {
			continue
		}
		d := rows[i].Second.AveragePoints - rows[i].First.AveragePoints
		rows[i].Delta = &d
		rows[i].Improved = d > 0
	}
	return rows, nil
}

// VoterSide is a voter's behaviour in one league.
type VoterSide struct {
	VoterID        string  `json:"voter_id"`
	GoldenEar      float64 `json:"golden_ear"`
	Hipster        float64 `json:"hipster"`
	GenerosityMean float64 `json:"generosity_mean"`
}

// VoterComparison aligns one voter across any number of leagues. Leagues[i]
// is nil when the voter cast no votes in events[i].
type VoterComparison struct {
	Name    string       `json:"name"`
	Leagues []*VoterSide `json:"leagues"`
}

// CompareVoters aligns voters of every league by case-insensitive display
// name, in first-seen order. Names of one league that differ only by case
// keep separate rows.
func CompareVoters(events []Event) []VoterComparison {
	names := newAligner()
	var rows []VoterComparison
	for i, ev := range events {
		for _, m := range voters.All(ev.Snapshot) {
			idx, added := names.slot(m.Voter, i)
			if added {
				rows = append(rows, VoterComparison{Name: m.Voter, Leagues: make([]*VoterSide, len(events))})
			}
			rows[idx].Leagues[i] = &VoterSide{
				VoterID:        m.VoterID,
				GoldenEar:      m.GoldenEar,
				Hipster:        m.Hipster,
				GenerosityMean: m.GenerosityMean,
			}
		}
	}
	return rows
}
