package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// PollMetricsMeterName is the name used for the polling metrics meter
	PollMetricsMeterName = "github.com/CrashBytes/cloudflare-monitor/poll"

	// CacheMetricsMeterName is the name used for the cache metrics meter
	CacheMetricsMeterName = "github.com/CrashBytes/cloudflare-monitor/cache"

	// EventMetricsMeterName is the name used for the event hub metrics meter
	EventMetricsMeterName = "github.com/CrashBytes/cloudflare-monitor/events"
)

// PollMetrics holds the OpenTelemetry instruments for poll cycle metrics
type PollMetrics struct {
	pollDuration  metric.Float64Histogram
	pollErrors    metric.Int64Counter
	recordsSynced metric.Int64Gauge
}

// NewPollMetrics creates a new PollMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewPollMetrics(provider metric.MeterProvider) (*PollMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(PollMetricsMeterName)

	pollDuration, err := meter.Float64Histogram(
		"cfmon_poll_duration_seconds",
		metric.WithDescription("Duration of poll cycles in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	pollErrors, err := meter.Int64Counter(
		"cfmon_poll_errors_total",
		metric.WithDescription("Number of errors recorded by poll cycles"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	recordsSynced, err := meter.Int64Gauge(
		"cfmon_records_synced",
		metric.WithDescription("Number of records persisted by the last poll cycle"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &PollMetrics{
		pollDuration:  pollDuration,
		pollErrors:    pollErrors,
		recordsSynced: recordsSynced,
	}, nil
}

// RecordPollDuration records the duration of a poll cycle
func (m *PollMetrics) RecordPollDuration(ctx context.Context, duration time.Duration, success bool) {
	if m == nil || m.pollDuration == nil {
		return
	}

	m.pollDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordPollErrors adds the number of errors collected during a poll cycle
func (m *PollMetrics) RecordPollErrors(ctx context.Context, count int) {
	if m == nil || m.pollErrors == nil || count <= 0 {
		return
	}

	m.pollErrors.Add(ctx, int64(count))
}

// RecordRecordsSynced records how many records of a resource kind a cycle persisted
func (m *PollMetrics) RecordRecordsSynced(ctx context.Context, resource string, count int64) {
	if m == nil || m.recordsSynced == nil {
		return
	}

	m.recordsSynced.Record(ctx, count, metric.WithAttributes(attribute.String("resource", resource)))
}

// CacheMetrics holds the OpenTelemetry instruments for cache metrics
type CacheMetrics struct {
	requests  metric.Int64Counter
	evictions metric.Int64Counter
}

// NewCacheMetrics creates a new CacheMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewCacheMetrics(provider metric.MeterProvider) (*CacheMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(CacheMetricsMeterName)

	requests, err := meter.Int64Counter(
		"cfmon_cache_requests_total",
		metric.WithDescription("Number of cache lookups by result"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter(
		"cfmon_cache_evictions_total",
		metric.WithDescription("Number of entries removed from the cache by reason"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &CacheMetrics{
		requests:  requests,
		evictions: evictions,
	}, nil
}

// RecordLookup records a cache lookup and whether it hit
func (m *CacheMetrics) RecordLookup(ctx context.Context, cacheName string, hit bool) {
	if m == nil || m.requests == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}
	attrs := []attribute.KeyValue{
		attribute.String("cache", cacheName),
		attribute.String("result", result),
	}

	m.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEvictions records entries removed for the given reason ("capacity" or "expired")
func (m *CacheMetrics) RecordEvictions(ctx context.Context, cacheName, reason string, count int) {
	if m == nil || m.evictions == nil || count <= 0 {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("cache", cacheName),
		attribute.String("reason", reason),
	}

	m.evictions.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// EventMetrics holds the OpenTelemetry instruments for the event hub
type EventMetrics struct {
	subscribers metric.Int64UpDownCounter
	delivered   metric.Int64Counter
	removed     metric.Int64Counter
}

// NewEventMetrics creates a new EventMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewEventMetrics(provider metric.MeterProvider) (*EventMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(EventMetricsMeterName)

	subscribers, err := meter.Int64UpDownCounter(
		"cfmon_events_subscribers",
		metric.WithDescription("Number of connected event subscribers"),
		metric.WithUnit("{subscriber}"),
	)
	if err != nil {
		return nil, err
	}

	delivered, err := meter.Int64Counter(
		"cfmon_events_delivered_total",
		metric.WithDescription("Number of messages delivered to subscribers"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	removed, err := meter.Int64Counter(
		"cfmon_events_removed_total",
		metric.WithDescription("Number of subscribers removed by reason"),
		metric.WithUnit("{subscriber}"),
	)
	if err != nil {
		return nil, err
	}

	return &EventMetrics{
		subscribers: subscribers,
		delivered:   delivered,
		removed:     removed,
	}, nil
}

// SubscriberAdded records a newly registered subscriber
func (m *EventMetrics) SubscriberAdded(ctx context.Context) {
	if m == nil || m.subscribers == nil {
		return
	}

	m.subscribers.Add(ctx, 1)
}

// SubscriberRemoved records a subscriber leaving the registry and why
func (m *EventMetrics) SubscriberRemoved(ctx context.Context, reason string) {
	if m == nil || m.subscribers == nil {
		return
	}

	m.subscribers.Add(ctx, -1)
	if m.removed != nil {
		m.removed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

// RecordDelivered records messages of one event delivered to subscribers
func (m *EventMetrics) RecordDelivered(ctx context.Context, event string, count int) {
	if m == nil || m.delivered == nil || count <= 0 {
		return
	}

	m.delivered.Add(ctx, int64(count), metric.WithAttributes(attribute.String("event", event)))
}
