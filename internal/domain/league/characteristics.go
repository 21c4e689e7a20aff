package league

import (
	"github.com/okian/songleague/internal/domain/songs"
	"github.com/okian/songleague/internal/domain/stats"
	"github.com/okian/songleague/internal/domain/trends"
	"github.com/okian/songleague/internal/domain/voters"
)

// Characteristics is one row of the side by side league summary.
type Characteristics struct {
	Name          string `json:"name"`
	Rounds        int    `json:"rounds"`
	Competitors   int    `json:"competitors"`
	Submissions   int    `json:"submissions"`
	Songs         int    `json:"songs"`
	Votes         int    `json:"votes"`
	PositiveVotes int    `json:"positive_votes"`

	Controversy stats.Summary `json:"controversy"`
	Obscurity   stats.Summary `json:"obscurity"`
	Popularity  stats.Summary `json:"popularity"`

	// VoterSimilarity is the mean defined pairwise voter similarity, or
	// stats.UndefinedCorrelation when no pair is defined.
	VoterSimilarity float64 `json:"voter_similarity"`
	// Competitiveness is the mean per-round standard deviation of song totals.
	Competitiveness float64 `json:"competitiveness"`
}

// Summaries summarises every league, in input order.
func Summaries(events []Event) []Characteristics {
	out := make([]Characteristics, 0, len(events))
	for _, ev := range events {
		out = append(out, characteristics(ev))
	}
	return out
}

func characteristics(ev Event) Characteristics {
	snap := ev.Snapshot
	rows := songs.All(snap)

	var controversy, obscurity, popularity []float64
	for _, s := range rows {
		controversy = append(controversy, s.Controversy)
		obscurity = append(obscurity, s.Obscurity)
		if s.Popularity != songs.UnknownPopularity {
			popularity = append(popularity, float64(s.Popularity))
		}
	}

	positive := 0
	for _, v := range snap.Votes() {
		if v.Points > 0 {
			positive++
		}
	}

	similarity := stats.UndefinedCorrelation
	if pairs := voters.SimilarityMatrix(snap).OffDiagonal(); len(pairs) > 0 {
		similarity = stats.Mean(pairs)
	}

	var spread []float64
	for _, c := range trends.AllCompetitiveness(snap) {
		spread = append(spread, c.ScoreStd)
	}

	return Characteristics{
		Name:            ev.Name,
		Rounds:          len(snap.Rounds()),
		Competitors:     len(snap.Competitors()),
		Submissions:     len(snap.Submissions()),
		Songs:           len(rows),
		Votes:           len(snap.Votes()),
		PositiveVotes:   positive,
		Controversy:     stats.Summarize(stats.Defined(controversy, stats.NoVariance)),
		Obscurity:       stats.Summarize(obscurity),
		Popularity:      stats.Summarize(popularity),
		VoterSimilarity: similarity,
		Competitiveness: stats.Mean(spread),
	}
}
