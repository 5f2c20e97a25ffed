// Package status defines the health classification shared by the monitor's components.
package status

// Health represents the operational state reported by a component
type Health string

const (
	// HealthOperational means the component is working normally
	HealthOperational Health = "operational"

	// HealthDegraded means the component works but below expectations
	HealthDegraded Health = "degraded"

	// HealthDown means the component is not serving its purpose
	HealthDown Health = "down"
)

// severity orders health values from best to worst
func (h Health) severity() int {
	switch h {
	case HealthOperational:
		return 0
	case HealthDegraded:
		return 1
	default:
		return 2
	}
}

// Worst returns the most severe of the given health values.
// An empty list is operational.
func Worst(values ...Health) Health {
	worst := HealthOperational
	for _, h := range values {
		if h.severity() > worst.severity() {
			worst = h
		}
	}
	return worst
}

// ComponentHealth is the health of a named component as reported by /health
type ComponentHealth struct {
	Name   string `json:"name"`
	Status Health `json:"status"`
}
