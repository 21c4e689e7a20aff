// Package testleague generates synthetic leagues and checks a running API
// against them.
package testleague

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned for generator settings that cannot produce a
// league.
var ErrInvalidConfig = errors.New("invalid generator config")

// Config holds the shape of a generated league.
type Config struct {
	Name             string  // league directory name
	Competitors      int     // number of competitors, each submits once per round
	Rounds           int     // number of rounds
	PointsPerRound   int     // points every voter spends per round
	MaxPointsPerSong int     // cap on the points one voter gives one song
	UnknownShare     float64 // share of songs without a popularity value
	Seed             uint64  // same seed, same league
}

// DefaultConfig returns a twelve player, eight round league.
func DefaultConfig() Config {
	return Config{
		Name:             "synthetic",
		Competitors:      12,
		Rounds:           8,
		PointsPerRound:   10,
		MaxPointsPerSong: 5,
		UnknownShare:     0.1,
		Seed:             1,
	}
}

// Validate checks that every voter can spend its budget on songs other than
// its own.
func (c Config) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidConfig)
	case c.Competitors < 2:
		return fmt.Errorf("%w: need at least two competitors", ErrInvalidConfig)
	case c.Rounds < 1:
		return fmt.Errorf("%w: need at least one round", ErrInvalidConfig)
	case c.PointsPerRound < 1 || c.MaxPointsPerSong < 1:
		return fmt.Errorf("%w: points must be positive", ErrInvalidConfig)
	case c.PointsPerRound > (c.Competitors-1)*c.MaxPointsPerSong:
		return fmt.Errorf("%w: %d points cannot be spent on %d songs capped at %d",
			ErrInvalidConfig, c.PointsPerRound, c.Competitors-1, c.MaxPointsPerSong)
	case c.UnknownShare < 0 || c.UnknownShare > 1:
		return fmt.Errorf("%w: unknown share must be in [0,1]", ErrInvalidConfig)
	}
	return nil
}

// Stats holds generation and verification statistics.
type Stats struct {
	League      string        `json:"league"`
	Fingerprint string        `json:"fingerprint"`
	Rounds      int           `json:"rounds"`
	Competitors int           `json:"competitors"`
	Submissions int           `json:"submissions"`
	Votes       int           `json:"votes"`
	Duration    time.Duration `json:"duration"`
}
