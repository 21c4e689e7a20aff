// Package songs computes per-song metrics: points received, how they were
// distributed, how divisive the song was, and how well it scored relative to
// its mainstream popularity.
package songs

import (
	"fmt"
	"sort"

	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/model"
	"github.com/okian/songleague/internal/domain/stats"
)

// UnknownPopularity is reported in Metrics.Popularity when the song has no
// popularity entry.
const UnknownPopularity = -1

// Metrics is one row of the song table.
type Metrics struct {
	RoundID     string `json:"round_id"`
	SongID      string `json:"song_id"`
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	SubmitterID string `json:"submitter_id"`
	Submitter   string `json:"submitter"`

	TotalPoints  int         `json:"total_points"`
	VoteCount    int         `json:"vote_count"`
	Distribution map[int]int `json:"vote_distribution"`
	Controversy  float64     `json:"controversy"`
	Obscurity    float64     `json:"obscurity"`
	Popularity   int         `json:"popularity"`
}

// Key returns the song key of the row.
func (m Metrics) Key() model.SongKey {
	return model.SongKey{RoundID: m.RoundID, SongID: m.SongID}
}

func lookup(snap *dataset.Snapshot, key model.SongKey) ([]model.Vote, error) {
	if _, err := snap.Submission(key); err != nil {
		return nil, err
	}
	return snap.VotesFor(key), nil
}

// TotalPoints returns the points a song received, 0 if nobody voted for it.
func TotalPoints(snap *dataset.Snapshot, key model.SongKey) (int, error) {
	if _, err := lookup(snap, key); err != nil {
		return 0, err
	}
	return snap.Points(key), nil
}

// VoteDistribution counts how many votes carried each point value. Point
// values nobody used are absent.
func VoteDistribution(snap *dataset.Snapshot, key model.SongKey) (map[int]int, error) {
	votes, err := lookup(snap, key)
	if err != nil {
		return nil, err
	}
	return distribution(votes), nil
}

func distribution(votes []model.Vote) map[int]int {
	dist := make(map[int]int)
	for _, v := range votes {
		dist[v.Points]++
	}
	return dist
}

// ControversyScore returns the population standard deviation of the points a
// song received, or stats.NoVariance when it received fewer than two votes.
func ControversyScore(snap *dataset.Snapshot, key model.SongKey) (float64, error) {
	votes, err := lookup(snap, key)
	if err != nil {
		return 0, err
	}
	return controversy(votes), nil
}

func controversy(votes []model.Vote) float64 {
	if len(votes) < 2 {
		return stats.NoVariance
	}
	points := make([]float64, len(votes))
	for i, v := range votes {
		points[i] = float64(v.Points)
	}
	return stats.StdDev(points)
}

// ObscurityScore returns total points / (popularity + 1). Unknown popularity
// counts as 0, so unknown songs are treated as maximally obscure.
func ObscurityScore(snap *dataset.Snapshot, key model.SongKey) (float64, error) {
	if _, err := lookup(snap, key); err != nil {
		return 0, err
	}
	return obscurity(snap, key), nil
}

func obscurity(snap *dataset.Snapshot, key model.SongKey) float64 {
	pop, _ := snap.Popularity(key.SongID)
	return float64(snap.Points(key)) / float64(pop+1)
}

// Compute returns the full metric row for one song.
func Compute(snap *dataset.Snapshot, key model.SongKey) (Metrics, error) {
	sub, err := snap.Submission(key)
	if err != nil {
		return Metrics{}, fmt.Errorf("song metrics: %w", err)
	}
	return build(snap, sub), nil
}

func build(snap *dataset.Snapshot, sub model.Submission) Metrics {
	key := sub.Key()
	votes := snap.VotesFor(key)
	pop, ok := snap.Popularity(key.SongID)
	if !ok {
		pop = UnknownPopularity
	}
	return Metrics{
		RoundID:      sub.RoundID,
		SongID:       sub.SongID,
		Title:        sub.Title,
		Artist:       sub.Artist,
		SubmitterID:  sub.SubmitterID,
		Submitter:    snap.DisplayName(sub.SubmitterID),
		TotalPoints:  snap.Points(key),
		VoteCount:    len(votes),
		Distribution: distribution(votes),
		Controversy:  controversy(votes),
		Obscurity:    obscurity(snap, key),
		Popularity:   pop,
	}
}

// All returns one row per submitted song, including songs that received no
// votes, ordered by total points descending and then by submission order.
func All(snap *dataset.Snapshot) []Metrics {
	seen := make(map[model.SongKey]struct{}, len(snap.Submissions()))
	rows := make([]Metrics, 0, len(snap.Submissions()))
	for _, sub := range snap.Submissions() {
		key := sub.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, build(snap, sub))
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TotalPoints > rows[j].TotalPoints })
	return rows
}
