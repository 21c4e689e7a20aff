package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxLeagues bounds the number of leagues held. When full, the least
// recently stored league is evicted.
func WithMaxLeagues(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxLeagues = n
		}
	}
}

// WithClock overrides the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
