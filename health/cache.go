package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/reqshape/cache"
)

// StatsSource is any cache exposing its counters. *cache.Facade
// satisfies it.
type StatsSource interface {
	Stats(ctx context.Context) cache.Snapshot
}

// CacheCheckerConfig configures the cache checker.
type CacheCheckerConfig struct {
	// Name overrides the checker name. Default: "cache"
	Name string

	// MinHitRate marks the cache degraded when the hit rate falls
	// below it. Only applied once MinLookups lookups have been seen,
	// so a cold cache is not flagged.
	// Default: 0 (disabled)
	MinHitRate float64

	// MinLookups is the lookup count below which MinHitRate is not
	// applied.
	// Default: 100
	MinLookups int64
}

// CacheChecker reads a cache's counters and flags a persistently low
// hit rate. It never reports unhealthy: a cold or thrashing cache
// degrades service, it does not break it.
type CacheChecker struct {
	config CacheCheckerConfig
	source StatsSource
}

// NewCacheChecker creates a checker over source.
func NewCacheChecker(source StatsSource, config CacheCheckerConfig) *CacheChecker {
	if config.Name == "" {
		config.Name = "cache"
	}
	if config.MinLookups <= 0 {
		config.MinLookups = 100
	}

	return &CacheChecker{config: config, source: source}
}

func (c *CacheChecker) Name() string { return c.config.Name }

func (c *CacheChecker) Check(ctx context.Context) Result {
	snap := c.source.Stats(ctx)

	lookups := snap.Hits + snap.Misses
	hitRate := 0.0
	if lookups > 0 {
		hitRate = float64(snap.Hits) / float64(lookups)
	}

	details := map[string]any{
		"size":        snap.Size,
		"hits":        snap.Hits,
		"misses":      snap.Misses,
		"collapses":   snap.Collapses,
		"evictions":   snap.Evictions,
		"expirations": snap.Expirations,
		"hit_rate":    hitRate,
	}

	if c.config.MinHitRate > 0 && lookups >= c.config.MinLookups && hitRate < c.config.MinHitRate {
		return Degraded(
			fmt.Sprintf("hit rate %.2f below %.2f", hitRate, c.config.MinHitRate),
		).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%d entries, hit rate %.2f", snap.Size, hitRate)).WithDetails(details)
}
