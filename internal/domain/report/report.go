// Package report holds the full analysis of one league as produced by the
// engine service and persisted by the cache and repository adapters.
package report

import (
	"fmt"
	"time"

	"github.com/okian/songleague/internal/domain/comments"
	"github.com/okian/songleague/internal/domain/network"
	"github.com/okian/songleague/internal/domain/songs"
	"github.com/okian/songleague/internal/domain/submitters"
	"github.com/okian/songleague/internal/domain/trends"
	"github.com/okian/songleague/internal/domain/voters"
)

// Settings are the tunables a report was computed with. Reports computed
// with different settings are never interchangeable.
type Settings struct {
	ExcludeSelfVotes bool    `json:"exclude_self_votes"`
	HipsterMinPoints int     `json:"hipster_min_points"`
	HotStreakTopN    int     `json:"hot_streak_top_n"`
	Damping          float64 `json:"pagerank_damping"`
	Epsilon          float64 `json:"pagerank_epsilon"`
	MaxIterations    int     `json:"pagerank_max_iterations"`
}

// Digest returns a short stable rendering of s for cache keys.
func (s Settings) Digest() string {
	return fmt.Sprintf("self=%t;hip=%d;top=%d;d=%g;e=%g;it=%d",
		s.ExcludeSelfVotes, s.HipsterMinPoints, s.HotStreakTopN, s.Damping, s.Epsilon, s.MaxIterations)
}

// Report is every table computed for one league.
type Report struct {
	League        string    `json:"league"`
	Fingerprint   string    `json:"fingerprint"`
	EngineVersion string    `json:"engine_version"`
	GeneratedAt   time.Time `json:"generated_at"`
	Settings      Settings  `json:"settings"`

	Songs         []songs.Metrics           `json:"songs"`
	Voters        []voters.Metrics          `json:"voters"`
	Similarity    voters.Matrix             `json:"similarity"`
	Submitters    []submitters.Metrics      `json:"submitters"`
	Relationships []submitters.Relationship `json:"relationships"`
	Network       Network                   `json:"network"`
	Trends        Trends                    `json:"trends"`
	Comments      comments.Table            `json:"comments"`
}

// Network is the voting graph and everything derived from it.
type Network struct {
	Nodes       []Node                `json:"nodes"`
	Edges       []network.Edge        `json:"edges"`
	Influence   []network.Influence   `json:"influence"`
	Iterations  int                   `json:"pagerank_iterations"`
	Converged   bool                  `json:"pagerank_converged"`
	Reciprocity []network.Reciprocity `json:"reciprocity"`
	Communities network.Partition     `json:"communities"`
	Components  [][]string            `json:"components"`
}

// Node is a graph vertex with its display name.
type Node struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Trends are the cross-round tables.
type Trends struct {
	Standings       []trends.Standing        `json:"standings"`
	Competitiveness []trends.Competitiveness `json:"competitiveness"`
	Players         []trends.Player          `json:"players"`
}

// Summary is the listing view of a report.
type Summary struct {
	League      string    `json:"league"`
	Fingerprint string    `json:"fingerprint"`
	GeneratedAt time.Time `json:"generated_at"`
	Songs       int       `json:"songs"`
	Voters      int       `json:"voters"`
	Submitters  int       `json:"submitters"`
	Communities int       `json:"communities"`
}

// Summarize returns the listing view of r.
func (r *Report) Summarize() Summary {
	return Summary{
		League:      r.League,
		Fingerprint: r.Fingerprint,
		GeneratedAt: r.GeneratedAt,
		Songs:       len(r.Songs),
		Voters:      len(r.Voters),
		Submitters:  len(r.Submitters),
		Communities: len(r.Network.Communities.Communities),
	}
}
