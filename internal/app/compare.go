package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/okian/songleague/internal/domain/league"
)

// Comparison puts two or more leagues side by side.
type Comparison struct {
	Leagues         []string                     `json:"leagues"`
	Characteristics []league.Characteristics     `json:"characteristics"`
	Submitters      []league.SubmitterComparison `json:"submitters,omitempty"`
	Voters          []league.VoterComparison     `json:"voters"`
	SongOverlap     []league.SongOverlap         `json:"song_overlap"`
}

// Compare loads every named league and compares them. Submitters are only
// compared when exactly two leagues are given.
func (s *Service) Compare(ctx context.Context, names []string) (*Comparison, error) {
	if len(names) < 2 {
		return nil, fmt.Errorf("%w: need at least two leagues, got %d", league.ErrEventCount, len(names))
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return nil, fmt.Errorf("%w: %s listed twice", ErrInvalidLeague, n)
		}
		seen[n] = struct{}{}
	}

	events := make([]league.Event, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, n := range names {
		g.Go(func() error {
			e, err := s.entry(gctx, n)
			if err != nil {
				return err
			}
			events[i] = league.Event{Name: n, Snapshot: e.Snapshot}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &Comparison{
		Leagues:         names,
		Characteristics: league.Summaries(events),
		Voters:          league.CompareVoters(events),
		SongOverlap:     league.SongOverlapAnalysis(events),
	}
	if len(events) == 2 {
		subs, err := league.CompareSubmitters(events)
		if err != nil {
			return nil, err
		}
		c.Submitters = subs
	}
	return c, nil
}
