// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New() returns a Config populated with defaults.
//   - Load(ctx) layers a YAML file and SONGLEAGUE_* environment variables on top.
//   - Errors are wrapped with this package's sentinels.
package config

import (
	"runtime"
	"time"
)

// Cache backends understood by the service.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`
	// LogFile optionally mirrors logs into a rotating file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir holds one sub-directory of CSV exports per league.
	DataDir string `koanf:"data_dir"`
	// Leagues restricts which sub-directories of DataDir are served. Empty means all.
	Leagues []string `koanf:"leagues"`
	// VoteFilter is an optional CEL expression; votes for which it is false are dropped.
	VoteFilter string `koanf:"vote_filter"`

	// CacheBackend selects none, file, or redis.
	CacheBackend  string `koanf:"cache_backend"`
	CacheDir      string `koanf:"cache_dir"`
	RedisAddr     string `koanf:"redis_addr"`
	CacheTTLHours int    `koanf:"cache_ttl_hours"`

	// WorkerCount sets the number of preprocessing workers.
	WorkerCount int `koanf:"worker_count"`
	// QueueSize bounds the preprocessing job queue.
	QueueSize int `koanf:"queue_size"`
	// Parallelism bounds how many metric tables are computed concurrently per league.
	Parallelism int `koanf:"parallelism"`
	// JobTimeoutSeconds bounds one queued analysis. Zero keeps the worker default.
	JobTimeoutSeconds int `koanf:"job_timeout_seconds"`
	// MaxLeagues bounds the computed leagues kept in memory. Zero means no limit.
	MaxLeagues int `koanf:"max_leagues"`

	ExcludeSelfVotes      bool    `koanf:"exclude_self_votes"`
	HipsterMinPoints      int     `koanf:"hipster_min_points"`
	HotStreakTopN         int     `koanf:"hot_streak_top_n"`
	PageRankDamping       float64 `koanf:"pagerank_damping"`
	PageRankEpsilon       float64 `koanf:"pagerank_epsilon"`
	PageRankMaxIterations int     `koanf:"pagerank_max_iterations"`

	// Watch enables reloading leagues whose CSV files change on disk.
	Watch bool `koanf:"watch"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		DataDir:               "data",
		CacheBackend:          CacheFile,
		CacheDir:              ".cache/songleague",
		RedisAddr:             "localhost:6379",
		CacheTTLHours:         24 * 7,
		WorkerCount:           runtime.NumCPU(),
		QueueSize:             1024,
		Parallelism:           4,
		HipsterMinPoints:      2,
		HotStreakTopN:         3,
		PageRankDamping:       0.85,
		PageRankEpsilon:       1e-10,
		PageRankMaxIterations: 100,
	}
}

// JobTimeout returns the per-job analysis limit, zero when unset.
func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSeconds) * time.Second
}

// CacheTTL returns the cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}
