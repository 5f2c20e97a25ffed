package coordinator

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/juju/clock"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/CrashBytes/cloudflare-monitor/internal/cloudflare"
	"github.com/CrashBytes/cloudflare-monitor/internal/filtering"
	"github.com/CrashBytes/cloudflare-monitor/internal/storage"
	pkgsync "github.com/CrashBytes/cloudflare-monitor/internal/sync"
	"github.com/CrashBytes/cloudflare-monitor/internal/telemetry"
)

// pollKey is the singleflight key shared by every cycle
const pollKey = "poll"

// Coordinator manages background polling of the Cloudflare API
type Coordinator interface {
	// Start runs one cycle immediately and then one cycle per interval in the background.
	// Calling Start on a running coordinator does nothing.
	Start(ctx context.Context) error

	// Stop cancels the schedule and waits for the loop to exit. In-flight cycles finish.
	Stop() error

	// Poll runs one cycle, or joins the cycle already in flight, and returns its result
	Poll(ctx context.Context) *PollResult

	// TriggerImmediatePoll runs a cycle on demand
	TriggerImmediatePoll(ctx context.Context) *PollResult

	// Status returns whether the schedule runs and the last cycle's result
	Status() Status
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	client cloudflare.Client
	store  storage.Store

	interval     time.Duration
	jitter       time.Duration
	concurrency  int
	cycleTimeout time.Duration
	clock        clock.Clock

	projectFilter *filtering.ProjectFilter

	publisher Publisher
	detector  *pkgsync.ChangeDetector

	pollMetrics *telemetry.PollMetrics
	tracer      trace.Tracer

	group singleflight.Group

	mu         sync.Mutex
	running    bool
	cancelFunc context.CancelFunc
	done       chan struct{}
	lastResult *PollResult
	baselined  bool
}

// New creates a new coordinator with injected dependencies
func New(client cloudflare.Client, store storage.Store, opts ...Option) Coordinator {
	c := &defaultCoordinator{
		client:      client,
		store:       store,
		interval:    DefaultInterval,
		concurrency: DefaultConcurrency,
		clock:       clock.WallClock,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.publisher != nil {
		detector, err := pkgsync.NewChangeDetector(pkgsync.DefaultDetectorSize)
		if err != nil {
			slog.Warn("Change detection disabled", "error", err)
		} else {
			c.detector = detector
		}
	}

	return c
}

// Start begins the background poll loop
func (c *defaultCoordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		slog.Debug("Poll coordinator already running")
		return nil
	}

	// every start records a fresh baseline
	if c.detector != nil {
		c.detector.Reset()
	}
	c.baselined = false

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	c.done = make(chan struct{})
	c.running = true

	slog.Info("Starting poll coordinator",
		"interval", c.interval,
		"jitter", c.jitter,
		"concurrency", c.concurrency)

	go c.run(loopCtx, c.done)
	return nil
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	cancel, done := c.cancelFunc, c.done
	c.mu.Unlock()

	slog.Info("Stopping poll coordinator")
	cancel()
	// Wait for the loop, including a cycle in flight, to finish
	<-done
	return nil
}

// run executes a cycle, waits the interval, and repeats until ctx is cancelled
func (c *defaultCoordinator) run(ctx context.Context, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		if c.done == done {
			c.running = false
		}
		c.mu.Unlock()
		close(done)
		slog.Info("Poll coordinator shutting down")
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		result := c.Poll(ctx)
		if !result.Success {
			slog.Warn("Scheduled poll finished with errors",
				"error_count", len(result.Errors))
		}

		select {
		case <-c.clock.After(c.nextDelay()):
		case <-ctx.Done():
			return
		}
	}
}

// nextDelay returns the interval plus a random jitter in [0, jitter)
func (c *defaultCoordinator) nextDelay() time.Duration {
	if c.jitter <= 0 {
		return c.interval
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	return c.interval + time.Duration(rand.Int64N(int64(c.jitter)))
}

// Poll runs a cycle. Callers arriving while a cycle is in flight share its result.
func (c *defaultCoordinator) Poll(ctx context.Context) *PollResult {
	v, _, shared := c.group.Do(pollKey, func() (any, error) {
		return c.poll(ctx), nil
	})
	if shared {
		slog.Debug("Joined in-flight poll cycle")
	}
	return v.(*PollResult).Clone()
}

// TriggerImmediatePoll runs a cycle on demand
func (c *defaultCoordinator) TriggerImmediatePoll(ctx context.Context) *PollResult {
	slog.Info("Manual poll triggered")
	return c.Poll(ctx)
}

// Status returns a copy of the coordinator state
func (c *defaultCoordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		IsRunning:  c.running,
		LastResult: c.lastResult.Clone(),
	}
}

func (c *defaultCoordinator) setLastResult(r *PollResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastResult = r.Clone()
}
