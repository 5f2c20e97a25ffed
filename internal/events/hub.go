// Package events fans change notifications out to long-lived subscribers such as
// Server-Sent-Event streams.
//
// The hub keeps a bounded registry of subscribers. Delivery is non-blocking: a subscriber
// whose buffer is full or whose stream is closed is removed instead of slowing down the
// others. A heartbeat loop probes every subscriber and sweeps the ones that stopped
// accepting messages.
package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/CrashBytes/cloudflare-monitor/internal/status"
	"github.com/CrashBytes/cloudflare-monitor/internal/telemetry"
)

const (
	// DefaultMaxConnections is the default subscriber limit
	DefaultMaxConnections = 1000
	// DefaultHeartbeatInterval is the default time between heartbeats
	DefaultHeartbeatInterval = 30 * time.Second
	// DefaultBufferSize is the default per-subscriber outbound buffer
	DefaultBufferSize = 32

	// degradedUtilization is the share of capacity above which the hub reports degraded
	degradedUtilization = 0.9
)

// Removal reasons reported to metrics and logs
const (
	reasonUnsubscribed = "unsubscribed"
	reasonDeliveryFail = "delivery_failed"
	reasonStale        = "stale"
	reasonShutdown     = "shutdown"
)

var (
	// ErrCapacityReached is returned by Subscribe when the registry is full
	ErrCapacityReached = errors.New("maximum number of subscribers reached")

	// ErrHubStopped is returned by Subscribe after Stop
	ErrHubStopped = errors.New("event hub is stopped")
)

// Stats is a point-in-time view of the subscriber registry
type Stats struct {
	TotalConnections       int            `json:"totalConnections"`
	MaxConnections         int            `json:"maxConnections"`
	TopicDistribution      map[string]int `json:"topicDistribution"`
	AverageConnectionAgeMs int64          `json:"averageConnectionAgeMs"`
	OldestConnectionAgeMs  int64          `json:"oldestConnectionAgeMs"`
}

// Option configures a Hub
type Option func(*Hub)

// WithMaxConnections sets the subscriber limit
func WithMaxConnections(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.maxConnections = n
		}
	}
}

// WithHeartbeatInterval sets the time between heartbeats
func WithHeartbeatInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.heartbeatInterval = d
		}
	}
}

// WithStaleAfter sets how long a subscriber may go without a successful delivery
// before the sweep removes it. Defaults to twice the heartbeat interval.
func WithStaleAfter(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.staleAfter = d
		}
	}
}

// WithBufferSize sets the per-subscriber outbound buffer
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithClock sets the clock driving heartbeats and liveness
func WithClock(clk clock.Clock) Option {
	return func(h *Hub) {
		h.clock = clk
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *telemetry.EventMetrics) Option {
	return func(h *Hub) {
		h.metrics = m
	}
}

// Hub is a bounded registry of subscribers with topic-filtered fan-out
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	running     bool
	stopped     bool
	cancel      context.CancelFunc
	done        chan struct{}

	maxConnections    int
	heartbeatInterval time.Duration
	staleAfter        time.Duration
	bufferSize        int
	clock             clock.Clock
	metrics           *telemetry.EventMetrics
}

// NewHub creates a hub. Call Start to begin heartbeats.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subscribers:       make(map[string]*subscriber),
		maxConnections:    DefaultMaxConnections,
		heartbeatInterval: DefaultHeartbeatInterval,
		bufferSize:        DefaultBufferSize,
		clock:             clock.WallClock,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.staleAfter == 0 {
		h.staleAfter = 2 * h.heartbeatInterval
	}
	return h
}

// Start launches the heartbeat loop. Calling Start on a running or stopped hub does nothing.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running || h.stopped {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan struct{})
	h.running = true

	go h.heartbeatLoop(ctx, h.done)

	slog.Info("Event hub started",
		"max_connections", h.maxConnections,
		"heartbeat_interval", h.heartbeatInterval)
}

// Stop ends the heartbeat loop and closes every subscriber stream. It is idempotent.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.running = false
	cancel, done := h.cancel, h.done
	subs := h.subscribers
	h.subscribers = make(map[string]*subscriber)
	h.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	for _, s := range subs {
		s.close()
		h.metrics.SubscriberRemoved(context.Background(), reasonShutdown)
	}

	slog.Info("Event hub stopped", "closed_subscribers", len(subs))
}

// Subscribe registers a subscriber for topics. An empty list subscribes to every topic.
// The first message on the returned channel is a connected event carrying the client id.
func (h *Hub) Subscribe(topics []string) (*Subscription, error) {
	if len(topics) == 0 {
		topics = []string{TopicAll}
	}

	now := h.clock.Now()
	s := newSubscriber(uuid.NewString(), topics, h.bufferSize, now)

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil, ErrHubStopped
	}
	if len(h.subscribers) >= h.maxConnections {
		h.mu.Unlock()
		slog.Warn("Rejected subscriber, capacity reached", "max_connections", h.maxConnections)
		return nil, ErrCapacityReached
	}
	h.subscribers[s.id] = s
	h.mu.Unlock()

	h.metrics.SubscriberAdded(context.Background())

	topicList := append([]string(nil), topics...)
	s.send(newMessage(EventConnected, map[string]any{
		"clientId": s.id,
		"topics":   topicList,
	}, now))

	slog.Debug("Subscriber connected", "client_id", s.id, "topics", topicList)

	return &Subscription{ID: s.id, Topics: topicList, C: s.ch}, nil
}

// Unsubscribe removes a subscriber and closes its stream. It reports whether the
// subscriber was registered.
func (h *Hub) Unsubscribe(id string) bool {
	return h.remove(id, reasonUnsubscribed)
}

// Broadcast delivers an event to every subscriber of topic (or of every topic) and returns
// the number of successful deliveries. Subscribers that cannot accept the message are
// removed once all sends have finished.
func (h *Hub) Broadcast(topic, event string, data any) int {
	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subscribers))
	for _, s := range h.subscribers {
		if s.matches(topic) {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return 0
	}

	delivered := h.deliver(targets, newMessage(event, data, h.clock.Now()), false)
	h.metrics.RecordDelivered(context.Background(), event, delivered)
	return delivered
}

// deliver sends m to every target concurrently and removes the ones that failed.
// When touch is set, successful targets have their liveness refreshed.
func (h *Hub) deliver(targets []*subscriber, m Message, touch bool) int {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	now := h.clock.Now()
	for _, s := range targets {
		wg.Go(func() {
			if s.send(m) {
				if touch {
					s.touch(now)
				}
				return
			}
			mu.Lock()
			failed = append(failed, s.id)
			mu.Unlock()
		})
	}
	wg.Wait()

	for _, id := range failed {
		h.remove(id, reasonDeliveryFail)
	}
	if len(failed) > 0 {
		slog.Debug("Removed subscribers after failed delivery", "event", m.Event, "count", len(failed))
	}
	return len(targets) - len(failed)
}

func (h *Hub) heartbeatLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-h.clock.After(h.heartbeatInterval):
			h.heartbeat()
		case <-ctx.Done():
			return
		}
	}
}

// heartbeat probes every subscriber, then sweeps the stale ones
func (h *Hub) heartbeat() {
	targets := h.snapshot()
	if len(targets) > 0 {
		h.deliver(targets, newMessage(EventHeartbeat, map[string]any{
			"connections": len(targets),
		}, h.clock.Now()), true)
	}
	h.sweep(h.clock.Now())
}

// sweep removes subscribers whose last successful delivery is older than staleAfter
func (h *Hub) sweep(now time.Time) int {
	removed := 0
	for _, s := range h.snapshot() {
		if now.Sub(s.liveness()) > h.staleAfter && h.remove(s.id, reasonStale) {
			removed++
		}
	}
	if removed > 0 {
		slog.Info("Removed stale subscribers", "count", removed)
	}
	return removed
}

func (h *Hub) remove(id, reason string) bool {
	h.mu.Lock()
	s, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	if !ok {
		return false
	}
	s.close()
	h.metrics.SubscriberRemoved(context.Background(), reason)
	return true
}

func (h *Hub) snapshot() []*subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*subscriber, 0, len(h.subscribers))
	for _, s := range h.subscribers {
		out = append(out, s)
	}
	return out
}

// Len returns the number of registered subscribers
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Stats returns a snapshot of the registry
func (h *Hub) Stats() Stats {
	now := h.clock.Now()
	subs := h.snapshot()

	st := Stats{
		TotalConnections:  len(subs),
		MaxConnections:    h.maxConnections,
		TopicDistribution: make(map[string]int),
	}
	var total int64
	for _, s := range subs {
		for t := range s.topics {
			st.TopicDistribution[t]++
		}
		age := now.Sub(s.connectedAt).Milliseconds()
		total += age
		if age > st.OldestConnectionAgeMs {
			st.OldestConnectionAgeMs = age
		}
	}
	if len(subs) > 0 {
		st.AverageConnectionAgeMs = total / int64(len(subs))
	}
	return st
}

// HealthStatus reports down when heartbeats are not running and degraded above
// 90% utilisation
func (h *Hub) HealthStatus() status.Health {
	h.mu.RLock()
	running := h.running
	n := len(h.subscribers)
	h.mu.RUnlock()

	switch {
	case !running:
		return status.HealthDown
	case float64(n) > float64(h.maxConnections)*degradedUtilization:
		return status.HealthDegraded
	default:
		return status.HealthOperational
	}
}
