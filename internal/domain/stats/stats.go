// Package stats holds the numeric kernel shared by every metric family:
// population moments, mid-rank ranking, rank correlation and the sentinel
// values reported when a metric is undefined.
//
// Sentinels are ordinary float64 values rather than NaN so that results
// compare with == and encode to JSON.
package stats

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
)

const (
	// NoVariance is the controversy of a song with fewer than two votes.
	NoVariance = -1.0
	// Undefined marks a non-negative metric that cannot be computed, such as
	// the average points of a competitor with no submissions.
	Undefined = -1.0
	// UndefinedCorrelation marks a correlation in [-1,1] that cannot be
	// computed: fewer than two paired observations or a constant series.
	UndefinedCorrelation = -2.0
)

// IsUndefined reports whether v is one of the sentinels for a metric whose
// defined range is non-negative.
func IsUndefined(v float64) bool { return v == Undefined }

// IsUndefinedCorrelation reports whether v is the correlation sentinel.
func IsUndefinedCorrelation(v float64) bool { return v == UndefinedCorrelation }

// Floats converts integer observations.
func Floats(xs []int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}

// Mean returns the arithmetic mean, or 0 for no observations.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m, _ := mstats.Mean(xs)
	return m
}

// StdDev returns the population standard deviation, or 0 for no observations.
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sd, _ := mstats.StandardDeviationPopulation(xs)
	return sd
}

// Variance returns the population variance, or 0 for no observations.
func Variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	v, _ := mstats.PopulationVariance(xs)
	return v
}

// IsConstant reports whether every observation is equal. Empty input is
// constant.
func IsConstant(xs []float64) bool {
	for _, x := range xs[min(1, len(xs)):] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// Ranks returns 1-based ranks in ascending order. Tied values share the mean
// of the ranks they span.
func Ranks(xs []float64) []float64 {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	ranks := make([]float64, len(xs))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		mid := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = mid
		}
		i = j + 1
	}
	return ranks
}

// Pearson returns the correlation of two paired series. ok is false when the
// series differ in length, have fewer than two observations, or either is
// constant.
func Pearson(x, y []float64) (r float64, ok bool) {
	if len(x) != len(y) || len(x) < 2 || IsConstant(x) || IsConstant(y) {
		return 0, false
	}
	r, err := mstats.Pearson(x, y)
	if err != nil || math.IsNaN(r) {
		return 0, false
	}
	return clamp(r, -1, 1), true
}

// Spearman returns the rank correlation of two paired series using mid-ranks
// for ties. See Pearson for when ok is false.
func Spearman(x, y []float64) (rho float64, ok bool) {
	if len(x) != len(y) || len(x) < 2 || IsConstant(x) || IsConstant(y) {
		return 0, false
	}
	return Pearson(Ranks(x), Ranks(y))
}

// SpearmanOr is Spearman with the correlation sentinel substituted when the
// result is undefined.
func SpearmanOr(x, y []float64) float64 {
	rho, ok := Spearman(x, y)
	if !ok {
		return UndefinedCorrelation
	}
	return rho
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
