package stats_test

import (
	"math"
	"testing"

	"github.com/okian/songleague/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMoments(t *testing.T) {
	Convey("Given point values", t, func() {
		xs := stats.Floats([]int{5, 1})

		Convey("Then the mean and population std match hand computation", func() {
			So(stats.Mean(xs), ShouldEqual, 3)
			So(stats.StdDev(xs), ShouldEqual, 2)
			So(stats.Variance(xs), ShouldEqual, 4)
		})

		Convey("Then empty input yields zeros instead of errors", func() {
			So(stats.Mean(nil), ShouldEqual, 0)
			So(stats.StdDev(nil), ShouldEqual, 0)
		})
	})
}

func TestRanks(t *testing.T) {
	Convey("Given values with ties", t, func() {
		ranks := stats.Ranks([]float64{10, 20, 20, 5})

		Convey("Then ties share the mean of their ranks", func() {
			So(ranks, ShouldResemble, []float64{2, 3.5, 3.5, 1})
		})
	})
}

func TestSpearman(t *testing.T) {
	Convey("Given paired series", t, func() {
		Convey("When they are monotonically related", func() {
			rho, ok := stats.Spearman([]float64{1, 2, 3, 4}, []float64{10, 40, 90, 160})
			So(ok, ShouldBeTrue)
			So(rho, ShouldAlmostEqual, 1, 1e-12)
		})

		Convey("When they are reversed", func() {
			rho, ok := stats.Spearman([]float64{1, 2, 3}, []float64{3, 2, 1})
			So(ok, ShouldBeTrue)
			So(rho, ShouldAlmostEqual, -1, 1e-12)
		})

		Convey("When one side is constant", func() {
			_, ok := stats.Spearman([]float64{1, 2, 3}, []float64{4, 4, 4})
			So(ok, ShouldBeFalse)
			So(stats.SpearmanOr([]float64{1, 2, 3}, []float64{4, 4, 4}), ShouldEqual, stats.UndefinedCorrelation)
		})

		Convey("When there is a single pair", func() {
			_, ok := stats.Spearman([]float64{1}, []float64{2})
			So(ok, ShouldBeFalse)
		})

		Convey("When ties are present the result stays within bounds", func() {
			rho, ok := stats.Spearman([]float64{1, 1, 2, 3}, []float64{2, 1, 3, 3})
			So(ok, ShouldBeTrue)
			So(math.Abs(rho), ShouldBeLessThanOrEqualTo, 1)
		})
	})
}

func TestSummary(t *testing.T) {
	Convey("Given defined and undefined metric values", t, func() {
		values := stats.Defined([]float64{1, stats.Undefined, 3, 2}, stats.Undefined)

		Convey("Then sentinels are removed before summarising", func() {
			s := stats.Summarize(values)
			So(s.Count, ShouldEqual, 3)
			So(s.Mean, ShouldEqual, 2)
			So(s.Median, ShouldEqual, 2)
			So(s.Min, ShouldEqual, 1)
			So(s.Max, ShouldEqual, 3)
		})

		Convey("Then an empty summary has zero count", func() {
			So(stats.Summarize(nil), ShouldResemble, stats.Summary{})
		})
	})
}

func TestSlopeAndPercentile(t *testing.T) {
	Convey("Given a perfectly rising series", t, func() {
		x := []float64{0, 1, 2}
		y := []float64{0, 0.5, 1}

		Convey("Then the slope carries the sample-to-population scale", func() {
			// sample cov = 0.5, population var(x) = 2/3
			So(stats.Slope(x, y), ShouldAlmostEqual, 0.75, 1e-12)
		})

		Convey("Then a constant x has zero slope", func() {
			So(stats.Slope([]float64{1, 1}, []float64{0, 1}), ShouldEqual, 0)
		})

		Convey("Then percentile rank counts strictly smaller values", func() {
			So(stats.PercentileRank([]float64{1, 2, 3, 4}, 3), ShouldEqual, 0.5)
			So(stats.PercentileRank(nil, 3), ShouldEqual, 0)
		})
	})
}
