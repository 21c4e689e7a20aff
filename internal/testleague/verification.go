package testleague

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/model"
	"github.com/okian/songleague/pkg/logger"
)

// ErrMismatch is returned when the API disagrees with the generated data.
var ErrMismatch = errors.New("report does not match generated league")

const influenceTolerance = 1e-6

// Verify checks the API's report for league against the data it was
// generated from: every song with its vote totals, and influence scores
// summing to one.
func Verify(ctx context.Context, c *Client, league string, d dataset.Data) error {
	log := logger.Get().Named("testleague")

	if err := c.Health(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	expected := make(map[model.SongKey]int, len(d.Submissions))
	for _, s := range d.Submissions {
		expected[s.Key()] = 0
	}
	for _, v := range d.Votes {
		expected[v.Key()] += v.Points
	}

	rows, err := c.Songs(ctx, league)
	if err != nil {
		return err
	}
	if len(rows) != len(expected) {
		return fmt.Errorf("%w: %d songs reported, %d generated", ErrMismatch, len(rows), len(expected))
	}
	for _, row := range rows {
		want, ok := expected[row.Key()]
		if !ok {
			return fmt.Errorf("%w: unexpected song %s", ErrMismatch, row.Key())
		}
		if row.TotalPoints != want {
			return fmt.Errorf("%w: song %s has %d points, want %d", ErrMismatch, row.Key(), row.TotalPoints, want)
		}
	}
	log.Info(ctx, "song totals verified", logger.Int("songs", len(rows)))

	net, err := c.Network(ctx, league)
	if err != nil {
		return err
	}
	var sum float64
	for _, inf := range net.Influence {
		sum += inf.Score
	}
	if len(net.Influence) > 0 && math.Abs(sum-1) > influenceTolerance {
		return fmt.Errorf("%w: influence sums to %f", ErrMismatch, sum)
	}
	log.Info(ctx, "influence verified",
		logger.Int("nodes", len(net.Nodes)),
		logger.Int("pagerank_iterations", net.Iterations),
	)
	return nil
}
