package comments

// Notable comment defaults.
const (
	DefaultNotableMinLength = 50
	DefaultNotableTopN      = 20
)

type options struct {
	roundID   string
	minLength int
	topN      int
}

// Option configures comment metrics.
type Option func(*options)

// WithRound restricts wordsmith, critic and discussion scores to one round.
func WithRound(roundID string) Option {
	return func(o *options) {
		o.roundID = roundID
	}
}

// WithNotableMinLength sets the shortest comment NotableComments returns.
func WithNotableMinLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minLength = n
		}
	}
}

// WithNotableTopN caps how many notable comments are returned.
func WithNotableTopN(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.topN = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{minLength: DefaultNotableMinLength, topN: DefaultNotableTopN}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) inScope(roundID string) bool {
	return o.roundID == "" || o.roundID == roundID
}
