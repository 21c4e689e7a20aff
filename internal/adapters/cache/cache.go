// Package cache persists computed league reports keyed by league,
// snapshot fingerprint and engine version, so unchanged leagues are not
// recomputed.
package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/songleague/internal/domain/report"
)

// Key identifies one cached report.
type Key struct {
	League      string
	Fingerprint string
	Version     string
	Settings    string
}

// String renders k as league:fingerprint:version:settings-hash.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%016x", k.League, k.Fingerprint, k.Version, xxhash.Sum64String(k.Settings))
}

// Store reads and writes cached reports.
type Store interface {
	// Get returns the cached report and true, or false on a miss.
	Get(ctx context.Context, key Key) (*report.Report, bool, error)
	// Put stores r under key, replacing any previous entry.
	Put(ctx context.Context, key Key, r *report.Report) error
	// Close releases the backend.
	Close() error
}

// Nop is a Store that never hits.
type Nop struct{}

// Get implements Store.
func (Nop) Get(context.Context, Key) (*report.Report, bool, error) { return nil, false, nil }

// Put implements Store.
func (Nop) Put(context.Context, Key, *report.Report) error { return nil }

// Close implements Store.
func (Nop) Close() error { return nil }

// safeName turns a league name into a single path or key segment.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
