package trends

import (
	"fmt"
	"sort"

	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/model"
	"github.com/okian/songleague/internal/domain/stats"
	"github.com/okian/songleague/internal/domain/submitters"
)

// Trend labels derived from momentum.
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendSteady  = "steady"

	momentumThreshold = 0.1
)

// roundScore is what a submitter earned in one round they took part in.
type roundScore struct {
	index   int
	roundID string
	points  int
}

func resolve(snap *dataset.Snapshot, submitterID string) error {
	if !snap.HasCompetitor(submitterID) {
		return fmt.Errorf("%w: submitter %q", dataset.ErrEntityNotFound, submitterID)
	}
	return nil
}

// seasonOf sums the points credited to a submitter per round, skipping
// rounds they sat out.
func seasonOf(snap *dataset.Snapshot, submitterID string) []roundScore {
	totals := make(map[string]int)
	seen := make(map[model.SongKey]struct{})
	for _, sub := range snap.SubmissionsBy(submitterID) {
		points := 0
		if _, dup := seen[sub.Key()]; !dup {
			seen[sub.Key()] = struct{}{}
			points = snap.Credited(sub)
		}
		totals[sub.RoundID] += points
	}
	var out []roundScore
	for i, r := range snap.Rounds() {
		if p, ok := totals[r.ID]; ok {
			out = append(out, roundScore{index: i, roundID: r.ID, points: p})
		}
	}
	return out
}

// Cumulative is a submitter's running total after a round.
type Cumulative struct {
	RoundID string `json:"round_id"`
	Points  int    `json:"points"`
	Total   int    `json:"total"`
}

// CumulativePoints returns the running total after every round of the league.
// Rounds the submitter sat out repeat the previous total.
func CumulativePoints(snap *dataset.Snapshot, submitterID string) ([]Cumulative, error) {
	if err := resolve(snap, submitterID); err != nil {
		return nil, err
	}
	return cumulative(snap, submitterID), nil
}

func cumulative(snap *dataset.Snapshot, submitterID string) []Cumulative {
	perRound := make(map[string]int)
	for _, rs := range seasonOf(snap, submitterID) {
		perRound[rs.roundID] = rs.points
	}
	out := make([]Cumulative, 0, len(snap.Rounds()))
	running := 0
	for _, r := range snap.Rounds() {
		running += perRound[r.ID]
		out = append(out, Cumulative{RoundID: r.ID, Points: perRound[r.ID], Total: running})
	}
	return out
}

// Momentum returns the regression slope of a submitter's min-max normalised
// round totals against round position. Positive means improving. It is 0 for
// fewer than two rounds or identical totals.
func Momentum(snap *dataset.Snapshot, submitterID string) (float64, error) {
	if err := resolve(snap, submitterID); err != nil {
		return 0, err
	}
	return momentum(seasonOf(snap, submitterID)), nil
}

func momentum(season []roundScore) float64 {
	if len(season) < 2 {
		return 0
	}
	x := make([]float64, len(season))
	y := make([]float64, len(season))
	lo, hi := season[0].points, season[0].points
	for _, rs := range season {
		lo, hi = min(lo, rs.points), max(hi, rs.points)
	}
	if hi == lo {
		return 0
	}
	for i, rs := range season {
		x[i] = float64(rs.index)
		y[i] = float64(rs.points-lo) / float64(hi-lo)
	}
	// Sample covariance over population variance; the trend thresholds assume this scale.
	return stats.Slope(x, y)
}

// TrendOf labels a momentum value.
func TrendOf(momentum float64) string {
	switch {
	case momentum > momentumThreshold:
		return TrendRising
	case momentum < -momentumThreshold:
		return TrendFalling
	default:
		return TrendSteady
	}
}

// Streak counts top finishes in consecutive rounds the submitter played.
type Streak struct {
	Current     int `json:"current"`
	Max         int `json:"max"`
	TopFinishes int `json:"top_finishes"`
}

// HotStreak reports consecutive top-N finishes. A round counts as a top
// finish when any of the submitter's songs ranked within the top N.
func HotStreak(snap *dataset.Snapshot, submitterID string, opts ...Option) (Streak, error) {
	if err := resolve(snap, submitterID); err != nil {
		return Streak{}, err
	}
	return hotStreak(bestRanks(RoundStandings(snap), submitterID), newOptions(opts).topN), nil
}

// bestRanks returns the submitter's best rank per round played, in round order.
func bestRanks(standings []Standing, submitterID string) []int {
	var ranks []int
	lastRound := ""
	for _, s := range standings {
		if s.SubmitterID != submitterID {
			continue
		}
		if s.RoundID == lastRound {
			ranks[len(ranks)-1] = min(ranks[len(ranks)-1], s.Rank)
			continue
		}
		lastRound = s.RoundID
		ranks = append(ranks, s.Rank)
	}
	return ranks
}

func hotStreak(ranks []int, topN int) Streak {
	var s Streak
	run := 0
	for _, r := range ranks {
		if r <= topN {
			run++
			s.TopFinishes++
			s.Max = max(s.Max, run)
		} else {
			run = 0
		}
	}
	s.Current = run
	return s
}

// Peak is a submitter's best single round.
type Peak struct {
	RoundNumber int    `json:"round_number"`
	RoundID     string `json:"round_id"`
	Points      int    `json:"points"`
}

// Stretch is a submitter's best run of consecutive rounds played.
type Stretch struct {
	StartRound    int     `json:"start_round"`
	AveragePoints float64 `json:"average_points"`
	TotalPoints   int     `json:"total_points"`
}

func finishingStrength(season []roundScore) float64 {
	if len(season) < 2 {
		return 0
	}
	mid := len(season) / 2
	return meanPoints(season[mid:]) - meanPoints(season[:mid])
}

func meanPoints(season []roundScore) float64 {
	xs := make([]float64, len(season))
	for i, rs := range season {
		xs[i] = float64(rs.points)
	}
	return stats.Mean(xs)
}

// peak picks the first round with the highest total.
func peak(season []roundScore) Peak {
	if len(season) == 0 {
		return Peak{}
	}
	best := season[0]
	for _, rs := range season[1:] {
		if rs.points > best.points {
			best = rs
		}
	}
	return Peak{RoundNumber: best.index + 1, RoundID: best.roundID, Points: best.points}
}

// bestStretch finds the window of consecutive rounds played with the highest
// total. Seasons shorter than the window are one stretch.
func bestStretch(season []roundScore, window int) Stretch {
	if len(season) == 0 {
		return Stretch{}
	}
	if len(season) < window {
		total := 0
		for _, rs := range season {
			total += rs.points
		}
		return Stretch{StartRound: 1, AveragePoints: float64(total) / float64(len(season)), TotalPoints: total}
	}
	bestStart, bestTotal := 0, -1
	for i := 0; i+window <= len(season); i++ {
		total := 0
		for _, rs := range season[i : i+window] {
			total += rs.points
		}
		if total > bestTotal {
			bestStart, bestTotal = i, total
		}
	}
	return Stretch{
		StartRound:    bestStart + 1,
		AveragePoints: float64(bestTotal) / float64(window),
		TotalPoints:   bestTotal,
	}
}

// Player summarises one submitter's season.
type Player struct {
	SubmitterID       string       `json:"submitter_id"`
	Submitter         string       `json:"submitter"`
	Arc               string       `json:"arc"`
	AveragePoints     float64      `json:"average_points"`
	Consistency       float64      `json:"consistency"`
	FinishingStrength float64      `json:"finishing_strength"`
	Peak              Peak         `json:"peak"`
	BestStretch       Stretch      `json:"best_stretch"`
	Momentum          float64      `json:"momentum"`
	Trend             string       `json:"trend"`
	Streak            Streak       `json:"streak"`
	Cumulative        []Cumulative `json:"cumulative"`
}

// Players returns a season summary for every submitter, ordered by average
// points descending and then by competitor order.
func Players(snap *dataset.Snapshot, opts ...Option) []Player {
	o := newOptions(opts)
	standings := RoundStandings(snap)
	league := leagueSpread(snap)

	var rows []Player
	for _, id := range snap.Submitters() {
		season := seasonOf(snap, id)
		mean, std, _ := submitters.Consistency(snap, id)
		p := Player{
			SubmitterID:       id,
			Submitter:         snap.DisplayName(id),
			AveragePoints:     mean,
			Consistency:       std,
			FinishingStrength: finishingStrength(season),
			Peak:              peak(season),
			BestStretch:       bestStretch(season, o.window),
			Momentum:          momentum(season),
			Streak:            hotStreak(bestRanks(standings, id), o.topN),
			Cumulative:        cumulative(snap, id),
		}
		p.Trend = TrendOf(p.Momentum)
		p.Arc = league.classify(p)
		rows = append(rows, p)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AveragePoints > rows[j].AveragePoints })
	return rows
}

// PlayerOf returns the season summary of a single submitter.
func PlayerOf(snap *dataset.Snapshot, submitterID string, opts ...Option) (Player, error) {
	if err := resolve(snap, submitterID); err != nil {
		return Player{}, err
	}
	for _, p := range Players(snap, opts...) {
		if p.SubmitterID == submitterID {
			return p, nil
		}
	}
	return Player{}, fmt.Errorf("%w: %q has no submissions", dataset.ErrEntityNotFound, submitterID)
}
