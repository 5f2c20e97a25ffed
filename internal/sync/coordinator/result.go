package coordinator

import (
	"maps"
	"slices"
	"time"

	"github.com/CrashBytes/cloudflare-monitor/internal/status"
)

// Resource count keys of a PollResult
const (
	ResourceProjects    = "projects"
	ResourceDeployments = "deployments"
)

// PollResult is the outcome of one poll cycle
type PollResult struct {
	Success        bool           `json:"success"`
	Timestamp      time.Time      `json:"timestamp"`
	ResourceCounts map[string]int `json:"resourceCounts"`
	DurationMs     int64          `json:"durationMs"`
	Errors         []string       `json:"errors"`
}

func newPollResult(now time.Time) *PollResult {
	return &PollResult{
		Timestamp: now,
		ResourceCounts: map[string]int{
			ResourceProjects:    0,
			ResourceDeployments: 0,
		},
		Errors: []string{},
	}
}

// Clone returns a deep copy of the result
func (r *PollResult) Clone() *PollResult {
	if r == nil {
		return nil
	}
	out := *r
	out.ResourceCounts = maps.Clone(r.ResourceCounts)
	out.Errors = slices.Clone(r.Errors)
	return &out
}

// Status is a snapshot of the coordinator state
type Status struct {
	IsRunning  bool        `json:"isRunning"`
	LastResult *PollResult `json:"lastResult,omitempty"`
}

// Health classifies the polling subsystem: down when not running, degraded when the last
// cycle recorded errors, operational otherwise
func (s Status) Health() status.Health {
	switch {
	case !s.IsRunning:
		return status.HealthDown
	case s.LastResult != nil && len(s.LastResult.Errors) > 0:
		return status.HealthDegraded
	default:
		return status.HealthOperational
	}
}
