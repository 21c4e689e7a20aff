package network

type buildOptions struct {
	excludeSelf bool
}

// Option configures graph construction.
type Option func(*buildOptions)

// WithExcludeSelfVotes leaves out votes a competitor cast for their own
// songs. By default they become self-loops.
func WithExcludeSelfVotes(exclude bool) Option {
	return func(o *buildOptions) {
		o.excludeSelf = exclude
	}
}

// PageRankOptions configures the iterative PageRank algorithm.
type PageRankOptions struct {
	Damping       float64 // damping factor; typically 0.85
	Epsilon       float64 // L1 convergence threshold
	MaxIterations int     // upper bound on iterations
}

// DefaultPageRankOptions returns damping 0.85, epsilon 1e-10 and at most 100
// iterations.
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{
		Damping:       0.85,
		Epsilon:       1e-10,
		MaxIterations: 100,
	}
}
