package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/songleague/internal/adapters/mq/queue"
	"github.com/okian/songleague/internal/adapters/mq/worker"
	"github.com/okian/songleague/pkg/logger"
	"github.com/okian/songleague/pkg/metrics"
)

// Process implements worker.Processor for jobs queued with Submit.
func (s *Service) Process(ctx context.Context, job queue.Job) error {
	defer s.deduper.Unrecord(ctx, job.League)
	_, err := s.Analyze(ctx, job.League, job.Force)
	return err
}

// Submit queues league for background analysis. It returns false when the
// league is already queued or being processed.
func (s *Service) Submit(ctx context.Context, league string, force bool) (bool, error) {
	if err := s.checkName(league); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false, ErrNotStarted
	}

	if s.deduper.SeenAndRecord(ctx, league) {
		metrics.RecordJobDuplicate()
		s.logger.Debug(ctx, "league already queued", logger.String("league", league))
		return false, nil
	}

	job := queue.NewJob(league, force)
	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, league)
		return false, err
	}
	s.logger.Debug(ctx, "league queued",
		logger.String("league", league),
		logger.String("job_id", job.ID),
		logger.Bool("force", force),
	)
	return true, nil
}

// Outcome is the result of preprocessing one league.
type Outcome struct {
	League      string        `json:"league"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Cached      bool          `json:"cached"`
	Elapsed     time.Duration `json:"elapsed"`
	Err         error         `json:"-"`

	done bool
}

// Preprocess analyses every named league on a dedicated worker pool and
// waits for all of them. An empty list means every available league.
// Repeated names are processed once. Outcomes follow the order of first
// appearance.
func (s *Service) Preprocess(ctx context.Context, leagues []string, force bool) ([]Outcome, error) {
	if len(leagues) == 0 {
		all, err := s.Leagues(ctx)
		if err != nil {
			return nil, err
		}
		for _, l := range all {
			leagues = append(leagues, l.Name)
		}
	}

	var (
		mu       sync.Mutex
		outcomes = make([]Outcome, 0, len(leagues))
		slots    = make(map[string]int, len(leagues))
	)
	for _, l := range leagues {
		if _, ok := slots[l]; ok {
			metrics.RecordJobDuplicate()
			continue
		}
		slots[l] = len(outcomes)
		outcomes = append(outcomes, Outcome{League: l})
	}
	if len(outcomes) == 0 {
		return outcomes, nil
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(len(outcomes)))
	process := worker.ProcessorFunc(func(ctx context.Context, job queue.Job) error {
		start := time.Now()
		r, cached, err := s.analyze(ctx, job.League, job.Force)

		mu.Lock()
		o := &outcomes[slots[job.League]]
		o.Elapsed = time.Since(start)
		o.Err = err
		o.done = true
		if err == nil {
			o.Fingerprint = r.Fingerprint
			o.Cached = cached
		}
		mu.Unlock()
		return err
	})

	for _, o := range outcomes {
		if err := q.Enqueue(ctx, queue.NewJob(o.League, force)); err != nil {
			return nil, err
		}
	}
	_ = q.Close()

	pool := worker.NewPool(min(s.workerCount, len(outcomes)), q, process, worker.WithLogger(s.logger))
	pool.Start(ctx)
	pool.Wait()

	if err := ctx.Err(); err != nil {
		for i := range outcomes {
			if !outcomes[i].done {
				outcomes[i].Err = err
			}
		}
		return outcomes, err
	}
	s.logger.Info(ctx, "preprocessing finished", logger.Int("leagues", len(outcomes)))
	return outcomes, nil
}

// Watch resubmits every league received on changes until ctx is done or
// changes is closed.
func (s *Service) Watch(ctx context.Context, changes <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case league, ok := <-changes:
			if !ok {
				return
			}
			if !s.isAllowed(league) {
				continue
			}
			s.source.Invalidate(league)
			if _, err := s.Submit(ctx, league, false); err != nil {
				s.logger.Warn(ctx, "resubmit changed league failed",
					logger.String("league", league),
					logger.Error(err),
				)
				continue
			}
			s.logger.Info(ctx, "league changed, recomputing", logger.String("league", league))
		}
	}
}
