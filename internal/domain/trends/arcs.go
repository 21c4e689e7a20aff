package trends

import (
	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/stats"
	"github.com/okian/songleague/internal/domain/submitters"
)

// Arc types describe the shape of a player's season.
const (
	ArcHeadliner     = "Headliner"
	ArcOneHitWonder  = "One-Hit Wonder"
	ArcOpeningAct    = "Opening Act"
	ArcEncore        = "Encore"
	ArcCrowdFavorite = "Crowd Favorite"
	ArcWildCard      = "Wild Card"
)

// spread holds the league-wide distributions a player is placed against.
type spread struct {
	averages    []float64
	consistency []float64
}

func leagueSpread(snap *dataset.Snapshot) spread {
	var s spread
	for _, id := range snap.Submitters() {
		mean, std, err := submitters.Consistency(snap, id)
		if err != nil || stats.IsUndefined(mean) {
			continue
		}
		s.averages = append(s.averages, mean)
		s.consistency = append(s.consistency, std)
	}
	return s
}

// classify applies the rules in order; the first match wins.
func (s spread) classify(p Player) string {
	if len(s.averages) == 0 {
		return ArcWildCard
	}
	avgPct := stats.PercentileRank(s.averages, p.AveragePoints)
	stdPct := stats.PercentileRank(s.consistency, p.Consistency)

	switch {
	case avgPct >= 0.75 && stdPct < 0.5:
		return ArcHeadliner
	case p.AveragePoints > 0 && float64(p.Peak.Points) > 2*p.AveragePoints:
		return ArcOneHitWonder
	case p.FinishingStrength < -0.3*p.AveragePoints:
		return ArcOpeningAct
	case p.FinishingStrength > 0.3*p.AveragePoints:
		return ArcEncore
	case stdPct < 0.25:
		return ArcCrowdFavorite
	case stdPct >= 0.75:
		return ArcWildCard
	default:
		return ArcCrowdFavorite
	}
}
