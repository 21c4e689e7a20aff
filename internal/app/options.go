package service

import (
	"time"

	"github.com/okian/songleague/internal/adapters/cache"
	"github.com/okian/songleague/internal/adapters/repository"
	"github.com/okian/songleague/internal/config"
	"github.com/okian/songleague/internal/domain/report"
	"github.com/okian/songleague/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of preprocessing workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the preprocessing queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithParallelism bounds how many tables of one report are computed at once.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithJobTimeout bounds how long one queued league may take to analyse.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithCache sets the report cache. The default caches nothing.
func WithCache(c cache.Store) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithStore sets the repository holding computed leagues.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithSettings sets the metric tunables.
func WithSettings(st report.Settings) Option {
	return func(s *Service) {
		s.settings = st
	}
}

// WithLeagues restricts the service to the named leagues. Empty allows all.
func WithLeagues(names ...string) Option {
	return func(s *Service) {
		if len(names) == 0 {
			s.allowed = nil
			return
		}
		s.allowed = make(map[string]struct{}, len(names))
		for _, n := range names {
			s.allowed[n] = struct{}{}
		}
	}
}

// WithClock overrides the time source stamped on reports.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// FromConfig maps process configuration onto service options. The cache is
// opened separately since it owns a connection.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithParallelism(cfg.Parallelism),
		WithLeagues(cfg.Leagues...),
		WithSettings(SettingsFromConfig(cfg)),
		WithJobTimeout(cfg.JobTimeout()),
		WithStore(repository.NewMemoryStore(repository.WithMaxLeagues(cfg.MaxLeagues))),
	}
}

// SettingsFromConfig extracts the metric tunables from cfg.
func SettingsFromConfig(cfg *config.Config) report.Settings {
	return report.Settings{
		ExcludeSelfVotes: cfg.ExcludeSelfVotes,
		HipsterMinPoints: cfg.HipsterMinPoints,
		HotStreakTopN:    cfg.HotStreakTopN,
		Damping:          cfg.PageRankDamping,
		Epsilon:          cfg.PageRankEpsilon,
		MaxIterations:    cfg.PageRankMaxIterations,
	}
}
