package cache

import (
	"context"
	"fmt"

	"github.com/okian/songleague/internal/config"
)

// Open returns the Store selected by cfg.CacheBackend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.CacheBackend {
	case config.CacheNone:
		return Nop{}, nil
	case config.CacheFile, "":
		return NewFileStore(cfg.CacheDir)
	case config.CacheRedis:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.CacheTTL())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.CacheBackend)
	}
}
