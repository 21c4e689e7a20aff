package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/songleague/internal/adapters/cache"
	"github.com/okian/songleague/internal/adapters/repository"
	"github.com/okian/songleague/internal/domain/comments"
	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/network"
	"github.com/okian/songleague/internal/domain/report"
	"github.com/okian/songleague/internal/domain/songs"
	"github.com/okian/songleague/internal/domain/stats"
	"github.com/okian/songleague/internal/domain/submitters"
	"github.com/okian/songleague/internal/domain/trends"
	"github.com/okian/songleague/internal/domain/voters"
	"github.com/okian/songleague/pkg/logger"
	"github.com/okian/songleague/pkg/metrics"
)

// Fingerprint renders the content hash of snap as used in reports and
// cache keys.
func Fingerprint(snap *dataset.Snapshot) string {
	return fmt.Sprintf("%016x", snap.Fingerprint())
}

func (s *Service) cacheKey(snap *dataset.Snapshot) cache.Key {
	return cache.Key{
		League:      snap.Name(),
		Fingerprint: Fingerprint(snap),
		Version:     EngineVersion,
		Settings:    s.settings.Digest(),
	}
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// Compute builds the full report for snap. Independent tables are computed
// concurrently, at most parallelism at a time.
func (s *Service) Compute(ctx context.Context, snap *dataset.Snapshot) (*report.Report, error) {
	start := time.Now()
	st := s.settings
	r := &report.Report{
		League:        snap.Name(),
		Fingerprint:   Fingerprint(snap),
		EngineVersion: EngineVersion,
		GeneratedAt:   s.now().UTC(),
		Settings:      st,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	table := func(name string, fn func()) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := time.Now()
			fn()
			metrics.RecordTableLatency(name, elapsedMs(t))
			return nil
		})
	}

	table("songs", func() {
		r.Songs = songs.All(snap)
	})
	table("voters", func() {
		r.Voters = voters.All(snap, voters.WithHipsterMinPoints(st.HipsterMinPoints))
	})
	table("similarity", func() {
		r.Similarity = voters.SimilarityMatrix(snap)
	})
	table("submitters", func() {
		r.Submitters = submitters.All(snap, submitters.WithExcludeSelfVotes(st.ExcludeSelfVotes))
	})
	table("relationships", func() {
		r.Relationships = submitters.Relationships(snap, submitters.WithExcludeSelfVotes(st.ExcludeSelfVotes))
	})
	table("network", func() {
		r.Network = buildNetwork(snap, st)
	})
	table("trends", func() {
		r.Trends = report.Trends{
			Standings:       trends.RoundStandings(snap),
			Competitiveness: trends.AllCompetitiveness(snap),
			Players:         trends.Players(snap, trends.WithTopN(st.HotStreakTopN)),
		}
	})

	table("comments", func() {
		r.Comments = comments.All(snap)
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compute %s: %w", snap.Name(), err)
	}

	metrics.RecordReportComputed()
	metrics.RecordReportLatency(elapsedMs(start))
	metrics.RecordPageRankIterations(r.Network.Iterations)
	s.recordUndefined(ctx, r)

	s.logger.Info(ctx, "report computed",
		logger.String("league", r.League),
		logger.String("fingerprint", r.Fingerprint),
		logger.Int("songs", len(r.Songs)),
		logger.Int("voters", len(r.Voters)),
		logger.Int("pagerank_iterations", r.Network.Iterations),
		logger.Float64("elapsed_ms", elapsedMs(start)),
	)
	return r, nil
}

func buildNetwork(snap *dataset.Snapshot, st report.Settings) report.Network {
	g := network.Build(snap, network.WithExcludeSelfVotes(st.ExcludeSelfVotes))
	pr := network.PageRank(g, network.PageRankOptions{
		Damping:       st.Damping,
		Epsilon:       st.Epsilon,
		MaxIterations: st.MaxIterations,
	})

	nodes := make([]report.Node, 0, g.Len())
	for _, id := range g.Nodes() {
		nodes = append(nodes, report.Node{ID: id, Name: g.Name(id)})
	}
	return report.Network{
		Nodes:       nodes,
		Edges:       g.Edges(),
		Influence:   network.RankedInfluence(g, pr),
		Iterations:  pr.Iterations,
		Converged:   pr.Converged,
		Reciprocity: network.VotingReciprocity(g),
		Communities: network.DetectCommunities(g),
		Components:  network.Components(g),
	}
}

// recordUndefined counts sentinel values per metric. They are expected for
// small leagues, so they are only logged at debug.
func (s *Service) recordUndefined(ctx context.Context, r *report.Report) {
	counts := map[string]int{}
	for _, m := range r.Songs {
		if m.Controversy == stats.NoVariance {
			counts["controversy"]++
		}
	}
	for _, m := range r.Voters {
		if stats.IsUndefined(m.Hipster) {
			counts["hipster"]++
		}
		if stats.IsUndefinedCorrelation(m.GoldenEar) {
			counts["golden_ear"]++
		}
	}
	for _, m := range r.Submitters {
		if stats.IsUndefined(m.AveragePoints) {
			counts["average_points"]++
		}
		if stats.IsUndefined(m.Underdog) {
			counts["underdog"]++
		}
	}
	if stats.IsUndefinedCorrelation(r.Comments.LengthEffect.Correlation) {
		counts["comment_length_effect"]++
	}
	for _, v := range r.Similarity.OffDiagonal() {
		if stats.IsUndefinedCorrelation(v) {
			counts["similarity"]++
		}
	}

	for _, name := range []string{"controversy", "hipster", "golden_ear", "average_points", "underdog", "similarity", "comment_length_effect"} {
		n := counts[name]
		if n == 0 {
			continue
		}
		metrics.RecordUndefined(name, n)
		s.logger.Debug(ctx, "undefined metric values",
			logger.String("league", r.League),
			logger.String("metric", name),
			logger.Int("count", n),
		)
	}
}

// Analyze loads league and returns its report, from the cache when the
// data and settings are unchanged unless force is set. The result is kept
// in the store. Concurrent calls for one league with the same force flag
// share a single load.
func (s *Service) Analyze(ctx context.Context, league string, force bool) (*report.Report, error) {
	r, _, err := s.analyze(ctx, league, force)
	return r, err
}

type analysis struct {
	report *report.Report
	cached bool
}

func (s *Service) analyze(ctx context.Context, league string, force bool) (*report.Report, bool, error) {
	if err := s.checkName(league); err != nil {
		return nil, false, err
	}
	key := league
	if force {
		// A forced call must not join a cache-reading one.
		key += "\x00force"
	}
	v, err, _ := s.flight.Do(key, func() (any, error) {
		return s.load(ctx, league, force)
	})
	if err != nil {
		return nil, false, err
	}
	a := v.(analysis)
	return a.report, a.cached, nil
}

func (s *Service) load(ctx context.Context, league string, force bool) (analysis, error) {
	snap, err := s.source.Load(ctx, league)
	if err != nil {
		return analysis{}, err
	}

	key := s.cacheKey(snap)
	if !force {
		r, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.RecordCacheResult(metrics.CacheError)
			s.logger.Warn(ctx, "cache read failed", logger.String("key", key.String()), logger.Error(err))
		case ok:
			metrics.RecordCacheResult(metrics.CacheHit)
			s.logger.Debug(ctx, "cache hit", logger.String("key", key.String()))
			if err := s.store.Put(ctx, league, snap, r); err != nil {
				return analysis{}, err
			}
			return analysis{report: r, cached: true}, nil
		default:
			metrics.RecordCacheResult(metrics.CacheMiss)
		}
	}

	r, err := s.Compute(ctx, snap)
	if err != nil {
		return analysis{}, err
	}
	if err := s.cache.Put(ctx, key, r); err != nil {
		metrics.RecordCacheResult(metrics.CacheError)
		s.logger.Warn(ctx, "cache write failed", logger.String("key", key.String()), logger.Error(err))
	}
	if err := s.store.Put(ctx, league, snap, r); err != nil {
		return analysis{}, err
	}
	return analysis{report: r}, nil
}

// Report returns the stored report for league, analysing it first when it
// has not been loaded yet.
func (s *Service) Report(ctx context.Context, league string) (*report.Report, error) {
	e, err := s.entry(ctx, league)
	if err != nil {
		return nil, err
	}
	return e.Report, nil
}

func (s *Service) entry(ctx context.Context, league string) (repository.Entry, error) {
	if err := s.checkName(league); err != nil {
		return repository.Entry{}, err
	}
	e, err := s.store.Get(ctx, league)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return repository.Entry{}, err
	}
	if _, err := s.Analyze(ctx, league, false); err != nil {
		return repository.Entry{}, err
	}
	return s.store.Get(ctx, league)
}
