package submitters

type options struct {
	excludeSelf bool
	roundID     string
}

// Option configures submitter metrics.
type Option func(*options)

// WithExcludeSelfVotes drops votes a competitor cast for their own songs from
// fan, nemesis and relationship metrics. Points totals are unaffected.
func WithExcludeSelfVotes(exclude bool) Option {
	return func(o *options) {
		o.excludeSelf = exclude
	}
}

// WithRound restricts every metric to one round.
func WithRound(roundID string) Option {
	return func(o *options) {
		o.roundID = roundID
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) inScope(roundID string) bool {
	return o.roundID == "" || o.roundID == roundID
}
