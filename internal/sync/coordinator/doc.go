// Package coordinator schedules and executes poll cycles against the Cloudflare API.
//
// One poll cycle reads every Pages project, persists them, fetches the deployments of every
// project in parallel and persists those too. Failures never escape a cycle: they are
// collected into the cycle's PollResult, which the coordinator keeps as its last result.
//
// # Lifecycle
//
//	type Coordinator interface {
//	    Start(ctx context.Context) error  // run a cycle now, then one per interval
//	    Stop() error                       // stop scheduling, wait for the loop to exit
//	    Poll(ctx context.Context) *PollResult
//	    TriggerImmediatePoll(ctx context.Context) *PollResult
//	    Status() Status
//	}
//
// Start and Stop are idempotent. The loop waits the full interval after a cycle finishes
// before starting the next one, and every cycle (scheduled or manual) goes through a single
// singleflight key, so at most one cycle is in flight per coordinator. A caller arriving while
// a cycle runs receives a copy of that cycle's result.
//
// Cycles run on a context detached from the caller's cancellation, so Stop and disconnecting
// HTTP clients never abort a cycle halfway. WithCycleTimeout bounds a cycle's wall-clock time.
//
// # Change events
//
// When a Publisher is configured, the coordinator compares persisted records with the
// previous observation and publishes project.updated, deployment.created and
// deployment.updated events. The first cycle only records a baseline. Every cycle ends with
// a poll.completed event carrying its result.
//
// # Usage Example
//
//	coord := coordinator.New(client, store,
//	    coordinator.WithInterval(time.Minute),
//	    coordinator.WithPublisher(hub),
//	)
//	if err := coord.Start(ctx); err != nil {
//	    return err
//	}
//	defer coord.Stop()
package coordinator
