package voters

// DefaultHipsterMinPoints is the smallest vote counted as "scored highly" by
// the hipster score.
const DefaultHipsterMinPoints = 2

type options struct {
	hipsterMinPoints int
	roundID          string
}

// Option configures voter metrics.
type Option func(*options)

// WithHipsterMinPoints sets the smallest vote the hipster score considers.
func WithHipsterMinPoints(points int) Option {
	return func(o *options) {
		if points >= 0 {
			o.hipsterMinPoints = points
		}
	}
}

// WithRound restricts every metric to votes cast in one round.
func WithRound(roundID string) Option {
	return func(o *options) {
		o.roundID = roundID
	}
}

func newOptions(opts []Option) options {
	o := options{hipsterMinPoints: DefaultHipsterMinPoints}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
