// Package repository keeps computed league reports, and the snapshots they
// were computed from, in memory for the read API.
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/report"
	"github.com/okian/songleague/pkg/metrics"
)

// Entry is one stored league.
type Entry struct {
	Name     string
	Snapshot *dataset.Snapshot
	Report   *report.Report
	StoredAt time.Time
}

// Store provides read/write access to computed leagues.
type Store interface {
	// Put stores or replaces the league named name.
	Put(ctx context.Context, name string, snap *dataset.Snapshot, r *report.Report) error
	// Get returns the league. Returns ErrNotFound if it is unknown.
	Get(ctx context.Context, name string) (Entry, error)
	// List returns every stored league ordered by name.
	List(ctx context.Context) []Entry
	// Delete removes the league. Unknown names are ignored.
	Delete(ctx context.Context, name string)
	// Count returns the number of stored leagues.
	Count(ctx context.Context) int
}

// MemoryStore is a Store backed by a map guarded by a RWMutex.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	maxLeagues int
	now        func() time.Time
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, name string, snap *dataset.Snapshot, r *report.Report) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if snap == nil || r == nil {
		return fmt.Errorf("%w: %s has no report", ErrInvalidName, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[name]; !exists && s.maxLeagues > 0 && len(s.entries) >= s.maxLeagues {
		s.evictOldestLocked()
	}
	s.entries[name] = Entry{Name: name, Snapshot: snap, Report: r, StoredAt: s.now()}
	metrics.UpdateLeaguesStored(len(s.entries))
	return nil
}

func (s *MemoryStore) evictOldestLocked() {
	var oldest string
	var at time.Time
	for name, e := range s.entries {
		if oldest == "" || e.StoredAt.Before(at) || (e.StoredAt.Equal(at) && name < oldest) {
			oldest, at = name, e.StoredAt
		}
	}
	delete(s.entries, oldest)
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, name string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) []Entry {
	s.mu.RLock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, name)
	metrics.UpdateLeaguesStored(len(s.entries))
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
