// Package trends follows competitors across the rounds of a league: per-round
// standings, how contested each round was, and the shape of each player's
// season.
package trends

import (
	"sort"

	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/model"
	"github.com/okian/songleague/internal/domain/stats"
)

// Standing is one song's finishing position within its round.
type Standing struct {
	RoundID     string `json:"round_id"`
	RoundNumber int    `json:"round_number"`
	SubmitterID string `json:"submitter_id"`
	Submitter   string `json:"submitter"`
	SongID      string `json:"song_id"`
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Points      int    `json:"points"`
	Rank        int    `json:"rank"`
}

// RoundStandings ranks the songs of every round by points. Rounds follow
// snapshot order; equal points keep submission order and still get distinct
// ranks.
func RoundStandings(snap *dataset.Snapshot) []Standing {
	var out []Standing
	for i, r := range snap.Rounds() {
		out = append(out, roundStandings(snap, r.ID, i)...)
	}
	return out
}

func roundStandings(snap *dataset.Snapshot, roundID string, index int) []Standing {
	seen := make(map[model.SongKey]struct{})
	var rows []Standing
	for _, sub := range snap.SubmissionsIn(roundID) {
		if _, dup := seen[sub.Key()]; dup {
			continue
		}
		seen[sub.Key()] = struct{}{}
		rows = append(rows, Standing{
			RoundID:     roundID,
			RoundNumber: index + 1,
			SubmitterID: sub.SubmitterID,
			Submitter:   snap.DisplayName(sub.SubmitterID),
			SongID:      sub.SongID,
			Title:       sub.Title,
			Artist:      sub.Artist,
			Points:      snap.Points(sub.Key()),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Points > rows[j].Points })
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

// Competitiveness describes how spread out a round's results were.
type Competitiveness struct {
	RoundID       string  `json:"round_id"`
	VoteVariance  float64 `json:"vote_variance"`
	VoteStd       float64 `json:"vote_std"`
	ScoreVariance float64 `json:"score_variance"`
	ScoreStd      float64 `json:"score_std"`
	AverageScore  float64 `json:"average_score"`
}

// RoundCompetitiveness returns population variance and standard deviation of
// the individual votes and of the song totals in one round. A round without
// votes or songs reports zeros.
func RoundCompetitiveness(snap *dataset.Snapshot, roundID string) (Competitiveness, error) {
	if _, _, err := snap.Round(roundID); err != nil {
		return Competitiveness{}, err
	}
	return competitiveness(snap, roundID), nil
}

func competitiveness(snap *dataset.Snapshot, roundID string) Competitiveness {
	var votes, scores []float64
	seen := make(map[model.SongKey]struct{})
	for _, sub := range snap.SubmissionsIn(roundID) {
		if _, dup := seen[sub.Key()]; dup {
			continue
		}
		seen[sub.Key()] = struct{}{}
		scores = append(scores, float64(snap.Points(sub.Key())))
	}
	for _, v := range snap.Votes() {
		if v.RoundID == roundID {
			votes = append(votes, float64(v.Points))
		}
	}
	return Competitiveness{
		RoundID:       roundID,
		VoteVariance:  stats.Variance(votes),
		VoteStd:       stats.StdDev(votes),
		ScoreVariance: stats.Variance(scores),
		ScoreStd:      stats.StdDev(scores),
		AverageScore:  stats.Mean(scores),
	}
}

// AllCompetitiveness returns one row per round in round order.
func AllCompetitiveness(snap *dataset.Snapshot) []Competitiveness {
	out := make([]Competitiveness, 0, len(snap.Rounds()))
	for _, r := range snap.Rounds() {
		out = append(out, competitiveness(snap, r.ID))
	}
	return out
}
