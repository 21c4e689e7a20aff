// Package submitters computes per-submitter metrics: how many points a
// competitor's songs earned, how steady they were, how well they did with
// obscure picks, and who their biggest fan and nemesis were.
package submitters

import (
	"fmt"

	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/model"
	"github.com/okian/songleague/internal/domain/stats"
)

// Metrics is one row of the submitter table.
type Metrics struct {
	SubmitterID     string       `json:"submitter_id"`
	Submitter       string       `json:"submitter"`
	Submissions     int          `json:"submissions"`
	TotalPoints     int          `json:"total_points"`
	AveragePoints   float64      `json:"average_points"`
	ConsistencyMean float64      `json:"consistency_mean"`
	ConsistencyStd  float64      `json:"consistency_std"`
	Underdog        float64      `json:"underdog"`
	BiggestFan      *Counterpart `json:"biggest_fan"`
	Nemesis         *Counterpart `json:"nemesis"`
}

// Counterpart is a voter seen from the point of view of one submitter.
type Counterpart struct {
	VoterID       string  `json:"voter_id"`
	Voter         string  `json:"voter"`
	AveragePoints float64 `json:"average_points"`
	TotalPoints   int     `json:"total_points"`
	VoteCount     int     `json:"vote_count"`
}

func resolve(snap *dataset.Snapshot, submitterID string, opts []Option) ([]model.Submission, options, error) {
	o := newOptions(opts)
	if !snap.HasCompetitor(submitterID) {
		return nil, o, fmt.Errorf("%w: submitter %q", dataset.ErrEntityNotFound, submitterID)
	}
	if o.roundID != "" {
		if _, _, err := snap.Round(o.roundID); err != nil {
			return nil, o, err
		}
	}
	return scopedSubmissions(snap, submitterID, o), o, nil
}

func scopedSubmissions(snap *dataset.Snapshot, submitterID string, o options) []model.Submission {
	all := snap.SubmissionsBy(submitterID)
	if o.roundID == "" {
		return all
	}
	out := make([]model.Submission, 0, len(all))
	for _, s := range all {
		if o.inScope(s.RoundID) {
			out = append(out, s)
		}
	}
	return out
}

// songTotals returns the points credited to each submission. Repeated keys
// are credited once.
func songTotals(snap *dataset.Snapshot, subs []model.Submission) []float64 {
	out := make([]float64, len(subs))
	seen := make(map[model.SongKey]struct{}, len(subs))
	for i, s := range subs {
		if _, dup := seen[s.Key()]; dup {
			continue
		}
		seen[s.Key()] = struct{}{}
		out[i] = float64(snap.Credited(s))
	}
	return out
}

func sum(xs []float64) float64 {
	var t float64
	for _, x := range xs {
		t += x
	}
	return t
}

// AveragePointsPerSubmission returns total points received / number of
// submissions, or stats.Undefined for a competitor with no submissions.
func AveragePointsPerSubmission(snap *dataset.Snapshot, submitterID string, opts ...Option) (float64, error) {
	subs, _, err := resolve(snap, submitterID, opts)
	if err != nil {
		return 0, err
	}
	if len(subs) == 0 {
		return stats.Undefined, nil
	}
	return sum(songTotals(snap, subs)) / float64(len(subs)), nil
}

// Consistency returns the mean and population standard deviation of the
// points each submission earned. Both are stats.Undefined without
// submissions.
func Consistency(snap *dataset.Snapshot, submitterID string, opts ...Option) (mean, std float64, err error) {
	subs, _, err := resolve(snap, submitterID, opts)
	if err != nil {
		return 0, 0, err
	}
	mean, std = consistency(snap, subs)
	return mean, std, nil
}

func consistency(snap *dataset.Snapshot, subs []model.Submission) (float64, float64) {
	if len(subs) == 0 {
		return stats.Undefined, stats.Undefined
	}
	totals := songTotals(snap, subs)
	return stats.Mean(totals), stats.StdDev(totals)
}

// UnderdogFactor returns total points / (mean popularity of the submitted
// songs + 1). Unknown popularity counts as 0.
func UnderdogFactor(snap *dataset.Snapshot, submitterID string, opts ...Option) (float64, error) {
	subs, _, err := resolve(snap, submitterID, opts)
	if err != nil {
		return 0, err
	}
	return underdog(snap, subs), nil
}

func underdog(snap *dataset.Snapshot, subs []model.Submission) float64 {
	if len(subs) == 0 {
		return stats.Undefined
	}
	var popularity float64
	for _, s := range subs {
		p, _ := snap.Popularity(s.SongID)
		popularity += float64(p)
	}
	avg := popularity / float64(len(subs))
	return sum(songTotals(snap, subs)) / (avg + 1)
}

// FanAndNemesis returns the voters who gave the submitter the highest and the
// lowest average points. Ties go to the voter encountered first in vote
// order. Both are nil when nobody voted for the submitter.
func FanAndNemesis(snap *dataset.Snapshot, submitterID string, opts ...Option) (fan, nemesis *Counterpart, err error) {
	_, o, err := resolve(snap, submitterID, opts)
	if err != nil {
		return nil, nil, err
	}
	fan, nemesis = fanAndNemesis(snap, submitterID, o)
	return fan, nemesis, nil
}

func fanAndNemesis(snap *dataset.Snapshot, submitterID string, o options) (*Counterpart, *Counterpart) {
	return pick(relationships(snap, o), submitterID)
}

// pick scans rels in order, so the first voter reaching an extreme keeps it.
func pick(rels []Relationship, submitterID string) (fan, nemesis *Counterpart) {
	for _, rel := range rels {
		if rel.SubmitterID != submitterID {
			continue
		}
		if fan == nil || rel.AveragePoints > fan.AveragePoints {
			c := rel.counterpart()
			fan = &c
		}
		if nemesis == nil || rel.AveragePoints < nemesis.AveragePoints {
			c := rel.counterpart()
			nemesis = &c
		}
	}
	return fan, nemesis
}

// All returns one row per competitor with at least one submission in scope,
// in competitor order.
func All(snap *dataset.Snapshot, opts ...Option) []Metrics {
	o := newOptions(opts)
	rels := relationships(snap, o)

	rows := make([]Metrics, 0, len(snap.Submitters()))
	for _, id := range snap.Submitters() {
		subs := scopedSubmissions(snap, id, o)
		if len(subs) == 0 {
			continue
		}
		totals := songTotals(snap, subs)
		mean, std := consistency(snap, subs)
		m := Metrics{
			SubmitterID:     id,
			Submitter:       snap.DisplayName(id),
			Submissions:     len(subs),
			TotalPoints:     int(sum(totals)),
			AveragePoints:   sum(totals) / float64(len(subs)),
			ConsistencyMean: mean,
			ConsistencyStd:  std,
			Underdog:        underdog(snap, subs),
		}
		m.BiggestFan, m.Nemesis = pick(rels, id)
		rows = append(rows, m)
	}
	return rows
}
