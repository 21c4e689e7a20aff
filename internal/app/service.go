// Package service is the analysis engine behind the CLI and the HTTP API. It
// loads league exports, computes reports, caches them and keeps the latest
// report per league in memory.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/songleague/internal/adapters/cache"
	"github.com/okian/songleague/internal/adapters/mq/queue"
	"github.com/okian/songleague/internal/adapters/mq/worker"
	"github.com/okian/songleague/internal/adapters/repository"
	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/dedupe"
	"github.com/okian/songleague/internal/domain/network"
	"github.com/okian/songleague/internal/domain/report"
	"github.com/okian/songleague/internal/domain/trends"
	"github.com/okian/songleague/internal/domain/voters"
	"github.com/okian/songleague/pkg/logger"
)

// EngineVersion is stamped on every report. Bump it whenever a metric
// changes so cached reports are recomputed.
const EngineVersion = "1.1.0"

// Source provides league snapshots.
type Source interface {
	// Leagues lists the leagues available to load.
	Leagues() ([]string, error)
	// Load reads one league.
	Load(ctx context.Context, league string) (*dataset.Snapshot, error)
	// Invalidate drops anything memoised for league.
	Invalidate(league string)
}

// Service computes and serves league reports.
type Service struct {
	mu sync.RWMutex

	// Core components
	source   Source
	cache    cache.Store
	store    repository.Store
	deduper  dedupe.Deduper
	jobQueue *queue.InMemoryQueue
	pool     *worker.Pool
	flight   singleflight.Group

	// Configuration
	workerCount int
	queueSize   int
	parallelism int
	jobTimeout  time.Duration
	settings    report.Settings
	allowed     map[string]struct{}
	now         func() time.Time

	// State
	started bool

	logger logger.Logger
}

// DefaultSettings returns the tunables used when none are configured.
func DefaultSettings() report.Settings {
	pr := network.DefaultPageRankOptions()
	return report.Settings{
		HipsterMinPoints: voters.DefaultHipsterMinPoints,
		HotStreakTopN:    trends.DefaultTopN,
		Damping:          pr.Damping,
		Epsilon:          pr.Epsilon,
		MaxIterations:    pr.MaxIterations,
	}
}

// New constructs a Service reading leagues from src.
func New(src Source, opts ...Option) *Service {
	s := &Service{
		source:      src,
		cache:       cache.Nop{},
		store:       repository.NewMemoryStore(),
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		parallelism: 4,
		settings:    DefaultSettings(),
		now:         time.Now,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.queueSize + s.workerCount))
	}
	s.logger = s.logger.Named("engine")
	return s
}

// Settings returns the tunables reports are computed with.
func (s *Service) Settings() report.Settings { return s.settings }

// Start launches the background preprocessing workers used by Submit.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting engine...")
	s.jobQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.jobQueue, s,
		worker.WithLogger(s.logger),
		worker.WithJobTimeout(s.jobTimeout),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "engine started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("parallelism", s.parallelism),
	)
	return nil
}

// Stop gracefully shuts down the background workers. Stored reports stay
// available.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping engine...")
	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	s.started = false
	s.logger.Info(ctx, "engine stopped")
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"engineVersion": EngineVersion,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"parallelism":   s.parallelism,
		"settings":      s.settings,
		"leaguesStored": s.store.Count(ctx),
		"inFlight":      s.deduper.Size(),
	}
	if s.started {
		stats["queueLength"] = s.jobQueue.Len(ctx)
	}
	return stats
}

// LeagueStatus is one row of the league listing.
type LeagueStatus struct {
	Name    string          `json:"name"`
	Loaded  bool            `json:"loaded"`
	Summary *report.Summary `json:"summary,omitempty"`
}

// Leagues lists every available league, with a summary for those that
// were already computed.
func (s *Service) Leagues(ctx context.Context) ([]LeagueStatus, error) {
	names, err := s.source.Leagues()
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}

	rows := make(map[string]*LeagueStatus)
	for _, n := range names {
		if s.isAllowed(n) {
			rows[n] = &LeagueStatus{Name: n}
		}
	}
	for _, e := range s.store.List(ctx) {
		sum := e.Report.Summarize()
		rows[e.Name] = &LeagueStatus{Name: e.Name, Loaded: true, Summary: &sum}
	}

	out := make([]LeagueStatus, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Service) isAllowed(name string) bool {
	if s.allowed == nil {
		return true
	}
	_, ok := s.allowed[name]
	return ok
}

// checkName rejects names that are not a single path element or that lie
// outside the configured leagues.
func (s *Service) checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidLeague, name)
	}
	if !s.isAllowed(name) {
		return fmt.Errorf("%w: %s", ErrUnknownLeague, name)
	}
	return nil
}
