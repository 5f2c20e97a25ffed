package coordinator

import (
	"time"

	"github.com/juju/clock"
	"go.opentelemetry.io/otel/trace"

	"github.com/CrashBytes/cloudflare-monitor/internal/filtering"
	"github.com/CrashBytes/cloudflare-monitor/internal/telemetry"
)

const (
	// DefaultInterval is the time between the end of one cycle and the start of the next
	DefaultInterval = time.Minute
	// DefaultConcurrency bounds parallel deployment fetches
	DefaultConcurrency = 5
)

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithInterval sets the time waited after a cycle before the next one
func WithInterval(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithJitter adds a random delay in [0, d) to every wait
func WithJitter(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		if d > 0 {
			c.jitter = d
		}
	}
}

// WithConcurrency bounds how many deployment fetches run at once. Zero or less means unbounded.
func WithConcurrency(n int) Option {
	return func(c *defaultCoordinator) {
		c.concurrency = n
	}
}

// WithCycleTimeout bounds the wall-clock time of a single cycle. Zero means no deadline.
func WithCycleTimeout(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		c.cycleTimeout = d
	}
}

// WithProjectFilter limits polling to the projects the filter allows. Skipped projects are
// neither persisted nor queried for deployments.
func WithProjectFilter(f *filtering.ProjectFilter) Option {
	return func(c *defaultCoordinator) {
		c.projectFilter = f
	}
}

// WithClock sets the clock used for scheduling and durations
func WithClock(clk clock.Clock) Option {
	return func(c *defaultCoordinator) {
		c.clock = clk
	}
}

// WithPublisher enables change events
func WithPublisher(p Publisher) Option {
	return func(c *defaultCoordinator) {
		c.publisher = p
	}
}

// WithPollMetrics sets the poll metrics for the coordinator
func WithPollMetrics(m *telemetry.PollMetrics) Option {
	return func(c *defaultCoordinator) {
		c.pollMetrics = m
	}
}

// WithTracer sets the tracer for poll cycles
func WithTracer(tracer trace.Tracer) Option {
	return func(c *defaultCoordinator) {
		c.tracer = tracer
	}
}
