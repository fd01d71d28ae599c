package cache

import (
	"context"
	"log/slog"
	"time"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisURL selects the Redis backend when set.
	RedisURL string
	// Prefix is the key prefix for Redis.
	Prefix string
	// DefaultTTL is the default TTL for cache entries.
	DefaultTTL time.Duration
	// MaxEntries bounds the memory backend.
	MaxEntries int
}

// New creates the configured backend. If Redis is configured but
// unreachable, it logs a warning and falls back to memory.
func New(ctx context.Context, cfg Config, logger *slog.Logger) Cache {
	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(ctx, cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
		if err == nil {
			logger.Info("using redis cache", "prefix", cfg.Prefix)
			return rc
		}
		logger.Warn("redis cache unavailable, falling back to memory", "error", err)
	}

	maxEntries := cfg.MaxEntries
	if maxEntries == 0 {
		maxEntries = 10000
	}
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxEntries:      maxEntries,
		CleanupInterval: time.Minute,
	})
}
