// Package cache provides a bounded, TTL-expiring key/value cache with least-recently-used
// eviction and hit/miss accounting.
//
// Entries are never returned once older than the configured TTL. When the cache is full,
// inserting a new key evicts exactly the least-recently-used entry; replacing an existing
// key never evicts. All methods are safe for concurrent use.
package cache

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/juju/clock"

	"github.com/CrashBytes/cloudflare-monitor/internal/status"
	"github.com/CrashBytes/cloudflare-monitor/internal/telemetry"
)

const (
	// healthyHitRate is the hit rate (percent) above which the cache is operational
	healthyHitRate = 50.0
	// degradedHitRate is the hit rate (percent) at or above which the cache is degraded rather than down
	degradedHitRate = 20.0
)

// entry is a stored value and its bookkeeping
type entry[V any] struct {
	value       V
	storedAt    time.Time
	accessCount int
}

// Stats is a point-in-time snapshot of cache usage
type Stats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"maxSize"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hitRate"`
	TTL     string  `json:"ttl"`
}

// Option configures a Cache
type Option func(*options)

type options struct {
	clock   clock.Clock
	name    string
	metrics *telemetry.CacheMetrics
}

// WithClock sets the clock used for expiry decisions
func WithClock(clk clock.Clock) Option {
	return func(o *options) {
		o.clock = clk
	}
}

// WithName sets the name the cache reports in logs and metrics
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithMetrics sets the metrics recorder for lookups and evictions
func WithMetrics(m *telemetry.CacheMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Cache is a bounded TTL cache with LRU eviction
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	lru     *simplelru.LRU[K, *entry[V]]
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64

	clock   clock.Clock
	name    string
	metrics *telemetry.CacheMetrics
}

// New creates a cache holding at most maxSize entries, each valid for ttl
func New[K comparable, V any](maxSize int, ttl time.Duration, opts ...Option) (*Cache[K, V], error) {
	if maxSize < 1 {
		return nil, fmt.Errorf("max size must be at least 1, got %d", maxSize)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	o := &options{
		clock: clock.WallClock,
		name:  "default",
	}
	for _, opt := range opts {
		opt(o)
	}

	c := &Cache[K, V]{
		maxSize: maxSize,
		ttl:     ttl,
		clock:   o.clock,
		name:    o.name,
		metrics: o.metrics,
	}

	lru, err := simplelru.NewLRU[K, *entry[V]](maxSize, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU: %w", err)
	}
	c.lru = lru

	return c, nil
}

// expired reports whether e is older than the TTL at now. Caller holds mu.
func (c *Cache[K, V]) expired(e *entry[V], now time.Time) bool {
	return now.Sub(e.storedAt) > c.ttl
}

// Get returns the value for key if it is present and not expired.
// A hit marks the entry most recently used; an expired entry is removed and counts as a miss.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.lru.Peek(key)
	if ok && c.expired(e, c.clock.Now()) {
		c.lru.Remove(key)
		c.metrics.RecordEvictions(context.Background(), c.name, "expired", 1)
		ok = false
	}
	if !ok {
		c.misses++
		c.metrics.RecordLookup(context.Background(), c.name, false)
		return zero, false
	}

	// Get moves the entry to the most recently used position
	c.lru.Get(key)
	e.accessCount++
	c.hits++
	c.metrics.RecordLookup(context.Background(), c.name, true)
	return e.value, true
}

// Set stores value under key with a fresh timestamp.
// Inserting a new key into a full cache evicts the least recently used entry.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if e, ok := c.lru.Peek(key); ok {
		e.value = value
		e.storedAt = now
		c.lru.Get(key)
		return
	}

	if evicted := c.lru.Add(key, &entry[V]{value: value, storedAt: now}); evicted {
		c.metrics.RecordEvictions(context.Background(), c.name, "capacity", 1)
	}
}

// Has reports whether key holds a live entry without touching statistics or recency
func (c *Cache[K, V]) Has(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Peek(key)
	if !ok {
		return false
	}
	if c.expired(e, c.clock.Now()) {
		c.lru.Remove(key)
		return false
	}
	return true
}

// Delete removes key and reports whether it was present
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Remove(key)
}

// Clear removes every entry and resets the hit and miss counters
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Purge()
	c.hits = 0
	c.misses = 0
}

// Len returns the number of stored entries, including ones that expired but were not yet swept
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Len()
}

// Stats returns a snapshot of the cache counters
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Size:    c.lru.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate(c.hits, c.misses),
		TTL:     c.ttl.String(),
	}
}

// HealthStatus classifies the cache by hit rate. A cache that has not been queried yet is operational.
func (c *Cache[K, V]) HealthStatus() status.Health {
	c.mu.Lock()
	hits, misses := c.hits, c.misses
	c.mu.Unlock()

	return HealthFor(hits, misses)
}

// HealthFor classifies a hit/miss history: above 50% hits is operational, 20-50% degraded,
// below 20% down. No lookups at all is operational.
func HealthFor(hits, misses uint64) status.Health {
	if hits+misses == 0 {
		return status.HealthOperational
	}

	rate := hitRate(hits, misses)
	switch {
	case rate > healthyHitRate:
		return status.HealthOperational
	case rate >= degradedHitRate:
		return status.HealthDegraded
	default:
		return status.HealthDown
	}
}

// EvictExpired removes every expired entry and returns how many were removed
func (c *Cache[K, V]) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for _, key := range c.lru.Keys() {
		if e, ok := c.lru.Peek(key); ok && c.expired(e, now) {
			c.lru.Remove(key)
			removed++
		}
	}

	c.metrics.RecordEvictions(context.Background(), c.name, "expired", removed)
	return removed
}

// hitRate returns hits as a percentage of all lookups, rounded to two decimals
func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	rate := float64(hits) / float64(total) * 100
	return math.Round(rate*100) / 100
}
