package stats

import (
	mstats "github.com/montanaflynn/stats"
)

// Summary describes the distribution of a metric over a league.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize describes xs. An empty input yields a zero Summary with Count 0.
func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	median, _ := mstats.Median(xs)
	lo, _ := mstats.Min(xs)
	hi, _ := mstats.Max(xs)
	return Summary{
		Count:  len(xs),
		Mean:   Mean(xs),
		Median: median,
		Std:    StdDev(xs),
		Min:    lo,
		Max:    hi,
	}
}

// Defined drops every occurrence of sentinel from xs.
func Defined(xs []float64, sentinel float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if x != sentinel {
			out = append(out, x)
		}
	}
	return out
}

// Slope returns the sample covariance of (x, y) over the population variance
// of x, or 0 when x is constant or there are fewer than two points.
func Slope(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 || IsConstant(x) {
		return 0
	}
	cov, err := mstats.Covariance(x, y)
	if err != nil {
		return 0
	}
	return cov / Variance(x)
}

// PercentileRank returns the share of population values strictly below v.
func PercentileRank(population []float64, v float64) float64 {
	if len(population) == 0 {
		return 0
	}
	below := 0
	for _, p := range population {
		if p < v {
			below++
		}
	}
	return float64(below) / float64(len(population))
}
