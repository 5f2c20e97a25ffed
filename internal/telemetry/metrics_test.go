package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// collectScope collects from the reader and returns the metrics of the named scope
func collectScope(t *testing.T, reader *sdkmetric.ManualReader, scopeName string) []metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name == scopeName {
			return scope.Metrics
		}
	}
	return nil
}

// sumValue returns the total of an int64 sum metric with the given name
func sumValue(t *testing.T, metrics []metricdata.Metrics, name string) int64 {
	t.Helper()

	for _, m := range metrics {
		if m.Name != name {
			continue
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok, "metric %s is not an int64 sum", name)
		var total int64
		for _, dp := range sum.DataPoints {
			total += dp.Value
		}
		return total
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestNewPollMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewPollMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("creates metrics with SDK provider", func(t *testing.T) {
		t.Parallel()

		mp := sdkmetric.NewMeterProvider()
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewPollMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)
		assert.NotNil(t, metrics.pollDuration)
		assert.NotNil(t, metrics.pollErrors)
		assert.NotNil(t, metrics.recordsSynced)
	})
}

func TestPollMetrics_Record(t *testing.T) {
	t.Parallel()

	t.Run("no-op when metrics is nil", func(t *testing.T) {
		t.Parallel()

		var metrics *PollMetrics
		// Should not panic
		metrics.RecordPollDuration(context.Background(), time.Second, true)
		metrics.RecordPollErrors(context.Background(), 3)
		metrics.RecordRecordsSynced(context.Background(), "projects", 4)
	})

	t.Run("records cycle metrics", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewPollMetrics(mp)
		require.NoError(t, err)

		ctx := context.Background()
		metrics.RecordPollDuration(ctx, 2500*time.Millisecond, true)
		metrics.RecordPollDuration(ctx, 500*time.Millisecond, false)
		metrics.RecordPollErrors(ctx, 2)
		metrics.RecordPollErrors(ctx, 0)
		metrics.RecordRecordsSynced(ctx, "projects", 3)
		metrics.RecordRecordsSynced(ctx, "deployments", 12)

		scope := collectScope(t, reader, PollMetricsMeterName)
		require.NotEmpty(t, scope)
		assert.Equal(t, int64(2), sumValue(t, scope, "cfmon_poll_errors_total"))

		var foundHistogram bool
		for _, m := range scope {
			if m.Name != "cfmon_poll_duration_seconds" {
				continue
			}
			foundHistogram = true
			hist, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			var count uint64
			for _, dp := range hist.DataPoints {
				count += dp.Count
			}
			assert.Equal(t, uint64(2), count)
		}
		assert.True(t, foundHistogram, "expected poll duration histogram")
	})
}

func TestCacheMetrics_Record(t *testing.T) {
	t.Parallel()

	t.Run("no-op when metrics is nil", func(t *testing.T) {
		t.Parallel()

		var metrics *CacheMetrics
		metrics.RecordLookup(context.Background(), "projects", true)
		metrics.RecordEvictions(context.Background(), "projects", "expired", 2)
	})

	t.Run("records lookups and evictions", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewCacheMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)

		ctx := context.Background()
		metrics.RecordLookup(ctx, "projects", true)
		metrics.RecordLookup(ctx, "projects", false)
		metrics.RecordLookup(ctx, "summary", true)
		metrics.RecordEvictions(ctx, "projects", "capacity", 1)
		metrics.RecordEvictions(ctx, "projects", "expired", 3)

		scope := collectScope(t, reader, CacheMetricsMeterName)
		assert.Equal(t, int64(3), sumValue(t, scope, "cfmon_cache_requests_total"))
		assert.Equal(t, int64(4), sumValue(t, scope, "cfmon_cache_evictions_total"))
	})
}

func TestEventMetrics_Record(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewEventMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)

		// Should not panic
		metrics.SubscriberAdded(context.Background())
		metrics.SubscriberRemoved(context.Background(), "unsubscribed")
		metrics.RecordDelivered(context.Background(), "heartbeat", 4)
	})

	t.Run("tracks subscribers and deliveries", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewEventMetrics(mp)
		require.NoError(t, err)

		ctx := context.Background()
		metrics.SubscriberAdded(ctx)
		metrics.SubscriberAdded(ctx)
		metrics.SubscriberAdded(ctx)
		metrics.SubscriberRemoved(ctx, "delivery_failed")
		metrics.RecordDelivered(ctx, "deployment.updated", 2)
		metrics.RecordDelivered(ctx, "heartbeat", 3)

		scope := collectScope(t, reader, EventMetricsMeterName)
		assert.Equal(t, int64(2), sumValue(t, scope, "cfmon_events_subscribers"))
		assert.Equal(t, int64(5), sumValue(t, scope, "cfmon_events_delivered_total"))
		assert.Equal(t, int64(1), sumValue(t, scope, "cfmon_events_removed_total"))
	})
}
