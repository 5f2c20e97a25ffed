package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrashBytes/cloudflare-monitor/internal/status"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T, maxSize int, ttl time.Duration) (*Cache[string, int], *testclock.Clock) {
	t.Helper()
	clk := testclock.NewClock(epoch)
	c, err := New[string, int](maxSize, ttl, WithClock(clk), WithName("test"))
	require.NoError(t, err)
	return c, clk
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		maxSize int
		ttl     time.Duration
		wantErr string
	}{
		{name: "valid", maxSize: 10, ttl: time.Minute},
		{name: "single entry", maxSize: 1, ttl: time.Millisecond},
		{name: "very long ttl", maxSize: 1, ttl: 100 * 365 * 24 * time.Hour},
		{name: "zero size", maxSize: 0, ttl: time.Minute, wantErr: "max size must be at least 1"},
		{name: "negative size", maxSize: -1, ttl: time.Minute, wantErr: "max size must be at least 1"},
		{name: "zero ttl", maxSize: 1, ttl: 0, wantErr: "ttl must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := New[string, string](tt.maxSize, tt.ttl)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.maxSize, c.Stats().MaxSize)
		})
	}
}

func TestCache_GetSet(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t, 3, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 50.0, stats.HitRate)
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, "1m0s", stats.TTL)
}

func TestCache_Expiry(t *testing.T) {
	t.Parallel()
	c, clk := newTestCache(t, 3, 10*time.Second)

	c.Set("a", 1)

	clk.Advance(10 * time.Second)
	v, ok := c.Get("a")
	require.True(t, ok, "entry exactly ttl old is still live")
	assert.Equal(t, 1, v)

	clk.Advance(time.Nanosecond)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry is removed on read")

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t, 3, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// a becomes most recently used, b is now the oldest
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", 4)

	assert.Equal(t, 3, c.Len())
	assert.False(t, c.Has("b"))
	assert.True(t, c.Has("a"))
	assert.True(t, c.Has("c"))
	assert.True(t, c.Has("d"))
}

func TestCache_ReplaceDoesNotEvict(t *testing.T) {
	t.Parallel()
	c, clk := newTestCache(t, 2, 10*time.Second)

	c.Set("a", 1)
	c.Set("b", 2)

	clk.Advance(8 * time.Second)
	c.Set("a", 10)
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Has("b"))

	// b expires while the replaced a keeps its fresh timestamp
	clk.Advance(5 * time.Second)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
	assert.False(t, c.Has("b"))
}

func TestCache_HasDoesNotTouchStatsOrRecency(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t, 3, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	assert.True(t, c.Has("a"))
	assert.False(t, c.Has("zzz"))

	stats := c.Stats()
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.Misses)

	// a is still the least recently used entry
	c.Set("d", 4)
	assert.False(t, c.Has("a"))
}

func TestCache_DeleteAndClear(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t, 3, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	_, _ = c.Get("x")

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.Misses)
	assert.Zero(t, stats.HitRate)
}

func TestCache_HitRateRounding(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t, 3, time.Minute)

	c.Set("a", 1)
	_, _ = c.Get("a")
	_, _ = c.Get("a")
	_, _ = c.Get("missing")

	assert.Equal(t, 66.67, c.Stats().HitRate)
}

func TestCache_HealthStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		hits   int
		misses int
		want   status.Health
	}{
		{name: "no requests", want: status.HealthOperational},
		{name: "60 percent", hits: 6, misses: 4, want: status.HealthOperational},
		{name: "exactly 50 percent", hits: 1, misses: 1, want: status.HealthDegraded},
		{name: "exactly 20 percent", hits: 1, misses: 4, want: status.HealthDegraded},
		{name: "10 percent", hits: 1, misses: 9, want: status.HealthDown},
		{name: "only misses", misses: 3, want: status.HealthDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, _ := newTestCache(t, 3, time.Minute)
			c.Set("a", 1)
			for range tt.hits {
				_, _ = c.Get("a")
			}
			for range tt.misses {
				_, _ = c.Get("missing")
			}
			assert.Equal(t, tt.want, c.HealthStatus())
		})
	}
}

func TestCache_SingleSlot(t *testing.T) {
	t.Parallel()
	c, clk := newTestCache(t, 1, time.Second)

	c.Set("a", 1)
	c.Set("a", 2)
	assert.Equal(t, 1, c.Len(), "replacing the only key does not evict")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	c.Set("b", 3)
	assert.Equal(t, 1, c.Len())
	_, ok = c.Get("a")
	assert.False(t, ok, "a new key evicts the only slot")
	v, ok = c.Get("b")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	clk.Advance(2 * time.Second)
	_, ok = c.Get("b")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, 1, stats.MaxSize)
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
}

func TestCache_EvictExpired(t *testing.T) {
	t.Parallel()
	c, clk := newTestCache(t, 5, 10*time.Second)

	c.Set("a", 1)
	c.Set("b", 2)
	clk.Advance(6 * time.Second)
	c.Set("c", 3)
	clk.Advance(5 * time.Second)

	assert.Equal(t, 2, c.EvictExpired())
	assert.Equal(t, 0, c.EvictExpired(), "second sweep finds nothing")
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Has("c"))

	stats := c.Stats()
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.Misses)
}

func TestCache_ConcurrentAccessStaysBounded(t *testing.T) {
	t.Parallel()
	c, err := New[string, int](50, time.Minute)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				key := fmt.Sprintf("k-%d-%d", w, i%80)
				c.Set(key, i)
				_, _ = c.Get(key)
				_ = c.Has(key)
				if i%17 == 0 {
					c.Delete(key)
				}
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 50)
	stats := c.Stats()
	assert.Positive(t, stats.Hits+stats.Misses)
}
