package testleague

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/songleague/internal/adapters/loader"
	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/pkg/logger"
)

// Run generates a league from cfg and writes it under dir/cfg.Name in the
// export layout the loader reads.
func Run(ctx context.Context, cfg Config, dir string) (dataset.Data, Stats, error) {
	start := time.Now()
	log := logger.Get().Named("testleague")
	log.Info(ctx, "generating league",
		logger.String("league", cfg.Name),
		logger.Int("competitors", cfg.Competitors),
		logger.Int("rounds", cfg.Rounds),
		logger.Uint64("seed", cfg.Seed),
	)

	d, err := Generate(cfg)
	if err != nil {
		return dataset.Data{}, Stats{}, err
	}
	snap, err := dataset.New(cfg.Name, d)
	if err != nil {
		return dataset.Data{}, Stats{}, fmt.Errorf("generated league is invalid: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return dataset.Data{}, Stats{}, err
	}
	if err := loader.Write(dir, cfg.Name, d); err != nil {
		return dataset.Data{}, Stats{}, err
	}

	stats := Stats{
		League:      cfg.Name,
		Fingerprint: fmt.Sprintf("%016x", snap.Fingerprint()),
		Rounds:      len(d.Rounds),
		Competitors: len(d.Competitors),
		Submissions: len(d.Submissions),
		Votes:       len(d.Votes),
		Duration:    time.Since(start),
	}
	log.Info(ctx, "league written",
		logger.String("dir", dir),
		logger.String("fingerprint", stats.Fingerprint),
		logger.Int("votes", stats.Votes),
	)
	return d, stats, nil
}
