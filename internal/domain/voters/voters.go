// Package voters computes per-voter metrics: how generous a voter is, how
// much they favour obscure songs, how well their taste predicts the group,
// and how similar voters are to each other.
package voters

import (
	"fmt"

	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/model"
	"github.com/okian/songleague/internal/domain/stats"
)

// Metrics is one row of the voter table.
type Metrics struct {
	VoterID        string  `json:"voter_id"`
	Voter          string  `json:"voter"`
	VoteCount      int     `json:"vote_count"`
	PointsGiven    int     `json:"points_given"`
	GenerosityMean float64 `json:"generosity_mean"`
	GenerosityStd  float64 `json:"generosity_std"`
	Hipster        float64 `json:"hipster"`
	GoldenEar      float64 `json:"golden_ear"`
	Range          Range   `json:"range"`
}

// Range summarises the spread of points a voter handed out.
type Range struct {
	Min    int `json:"min"`
	Max    int `json:"max"`
	Spread int `json:"spread"`
}

// ballot is a voter's points per song, in the order the voter first scored
// each song. Repeated votes for one song are summed.
type ballot struct {
	keys   []model.SongKey
	points map[model.SongKey]float64
}

func newBallot(votes []model.Vote) ballot {
	b := ballot{points: make(map[model.SongKey]float64, len(votes))}
	for _, v := range votes {
		k := v.Key()
		if _, ok := b.points[k]; !ok {
			b.keys = append(b.keys, k)
		}
		b.points[k] += float64(v.Points)
	}
	return b
}

func scopedVotes(snap *dataset.Snapshot, voterID string, o options) []model.Vote {
	all := snap.VotesBy(voterID)
	if o.roundID == "" {
		return all
	}
	out := make([]model.Vote, 0, len(all))
	for _, v := range all {
		if v.RoundID == o.roundID {
			out = append(out, v)
		}
	}
	return out
}

func resolve(snap *dataset.Snapshot, voterID string, opts []Option) ([]model.Vote, options, error) {
	o := newOptions(opts)
	if !snap.HasCompetitor(voterID) {
		return nil, o, fmt.Errorf("%w: voter %q", dataset.ErrEntityNotFound, voterID)
	}
	if o.roundID != "" {
		if _, _, err := snap.Round(o.roundID); err != nil {
			return nil, o, err
		}
	}
	votes := scopedVotes(snap, voterID, o)
	if len(votes) == 0 {
		return nil, o, fmt.Errorf("%w: %q", ErrNoVotes, voterID)
	}
	return votes, o, nil
}

// Generosity returns the mean and population standard deviation of the
// points a voter gave.
func Generosity(snap *dataset.Snapshot, voterID string, opts ...Option) (mean, std float64, err error) {
	votes, _, err := resolve(snap, voterID, opts)
	if err != nil {
		return 0, 0, err
	}
	mean, std = generosity(votes)
	return mean, std, nil
}

func generosity(votes []model.Vote) (float64, float64) {
	points := pointValues(votes)
	return stats.Mean(points), stats.StdDev(points)
}

func pointValues(votes []model.Vote) []float64 {
	out := make([]float64, len(votes))
	for i, v := range votes {
		out[i] = float64(v.Points)
	}
	return out
}

// Hipster returns the points-weighted mean of (100 - popularity) over the
// votes worth at least the configured minimum. Songs with unknown popularity
// are skipped. The result is stats.Undefined when nothing qualifies.
func Hipster(snap *dataset.Snapshot, voterID string, opts ...Option) (float64, error) {
	votes, o, err := resolve(snap, voterID, opts)
	if err != nil {
		return 0, err
	}
	return hipster(snap, votes, o.hipsterMinPoints), nil
}

func hipster(snap *dataset.Snapshot, votes []model.Vote, minPoints int) float64 {
	var weighted, weight float64
	for _, v := range votes {
		if v.Points < minPoints {
			continue
		}
		pop, ok := snap.Popularity(v.SongID)
		if !ok {
			continue
		}
		weighted += float64(model.MaxPopularity-pop) * float64(v.Points)
		weight += float64(v.Points)
	}
	if weight == 0 {
		return stats.Undefined
	}
	return weighted / weight
}

// GoldenEar returns the Spearman correlation between a voter's points and the
// total points each of those songs received from everyone. It is
// stats.UndefinedCorrelation when fewer than two songs were scored or either
// series is constant.
func GoldenEar(snap *dataset.Snapshot, voterID string, opts ...Option) (float64, error) {
	votes, _, err := resolve(snap, voterID, opts)
	if err != nil {
		return 0, err
	}
	return goldenEar(snap, newBallot(votes)), nil
}

func goldenEar(snap *dataset.Snapshot, b ballot) float64 {
	mine := make([]float64, len(b.keys))
	group := make([]float64, len(b.keys))
	for i, k := range b.keys {
		mine[i] = b.points[k]
		group[i] = float64(snap.Points(k))
	}
	return stats.SpearmanOr(mine, group)
}

// VotingRange returns the lowest and highest single vote a voter cast.
func VotingRange(snap *dataset.Snapshot, voterID string, opts ...Option) (Range, error) {
	votes, _, err := resolve(snap, voterID, opts)
	if err != nil {
		return Range{}, err
	}
	return votingRange(votes), nil
}

func votingRange(votes []model.Vote) Range {
	r := Range{Min: votes[0].Points, Max: votes[0].Points}
	for _, v := range votes[1:] {
		r.Min = min(r.Min, v.Points)
		r.Max = max(r.Max, v.Points)
	}
	r.Spread = r.Max - r.Min
	return r
}

// All returns one row per voter who cast at least one vote in scope, in
// competitor order.
func All(snap *dataset.Snapshot, opts ...Option) []Metrics {
	o := newOptions(opts)
	rows := make([]Metrics, 0, len(snap.Voters()))
	for _, id := range snap.Voters() {
		votes := scopedVotes(snap, id, o)
		if len(votes) == 0 {
			continue
		}
		mean, std := generosity(votes)
		given := 0
		for _, v := range votes {
			given += v.Points
		}
		rows = append(rows, Metrics{
			VoterID:        id,
			Voter:          snap.DisplayName(id),
			VoteCount:      len(votes),
			PointsGiven:    given,
			GenerosityMean: mean,
			GenerosityStd:  std,
			Hipster:        hipster(snap, votes, o.hipsterMinPoints),
			GoldenEar:      goldenEar(snap, newBallot(votes)),
			Range:          votingRange(votes),
		})
	}
	return rows
}
