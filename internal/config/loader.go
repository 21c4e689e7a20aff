package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "SONGLEAGUE_"
	envFileVar = "SONGLEAGUE_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SONGLEAGUE_CONFIG is set
//  3. env (prefix SONGLEAGUE_)
func Load(_ context.Context) (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// SONGLEAGUE_DATA_DIR -> data_dir. Underscores are kept to match the flat koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ToLower(s)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case c.PageRankDamping <= 0 || c.PageRankDamping >= 1:
		return fmt.Errorf("%w: pagerank_damping must be in (0,1), got %v", ErrInvalidConfig, c.PageRankDamping)
	case c.PageRankEpsilon <= 0:
		return fmt.Errorf("%w: pagerank_epsilon must be positive", ErrInvalidConfig)
	case c.PageRankMaxIterations <= 0:
		return fmt.Errorf("%w: pagerank_max_iterations must be positive", ErrInvalidConfig)
	case c.HipsterMinPoints < 0:
		return fmt.Errorf("%w: hipster_min_points must not be negative", ErrInvalidConfig)
	case c.JobTimeoutSeconds < 0 || c.MaxLeagues < 0:
		return fmt.Errorf("%w: job_timeout_seconds and max_leagues must not be negative", ErrInvalidConfig)
	case c.HotStreakTopN <= 0:
		return fmt.Errorf("%w: hot_streak_top_n must be positive", ErrInvalidConfig)
	}

	switch c.CacheBackend {
	case CacheNone:
	case CacheFile:
		if c.CacheDir == "" {
			return fmt.Errorf("%w: cache_dir is required for the file cache", ErrInvalidConfig)
		}
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for the redis cache", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache_backend %q", ErrInvalidConfig, c.CacheBackend)
	}
	return nil
}
