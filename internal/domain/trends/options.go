package trends

// Defaults for streak and stretch detection.
const (
	DefaultTopN   = 3
	DefaultWindow = 3
)

type options struct {
	topN   int
	window int
}

// Option configures trend metrics.
type Option func(*options)

// WithTopN sets the finishing position that still counts as a top finish.
func WithTopN(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.topN = n
		}
	}
}

// WithWindow sets how many consecutive rounds make up a stretch.
func WithWindow(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.window = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{topN: DefaultTopN, window: DefaultWindow}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
