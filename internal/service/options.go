package service

import (
	"time"

	"github.com/juju/clock"

	"github.com/CrashBytes/cloudflare-monitor/internal/telemetry"
)

const (
	// DefaultCacheSize is the default number of entries per cache
	DefaultCacheSize = 1000
	// DefaultCacheTTL is the default lifetime of a cached query
	DefaultCacheTTL = 30 * time.Second
)

// Option configures the cached service
type Option func(*options)

type options struct {
	cacheSize int
	cacheTTL  time.Duration
	clock     clock.Clock
	metrics   *telemetry.CacheMetrics
}

// WithCacheSize sets the maximum number of entries of each cache
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithCacheTTL sets how long query results are served from cache
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.cacheTTL = ttl
	}
}

// WithClock sets the clock used by the caches
func WithClock(clk clock.Clock) Option {
	return func(o *options) {
		o.clock = clk
	}
}

// WithCacheMetrics sets the cache metrics recorder
func WithCacheMetrics(m *telemetry.CacheMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
