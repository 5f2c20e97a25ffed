package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorst(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []Health
		want   Health
	}{
		{name: "empty is operational", values: nil, want: HealthOperational},
		{name: "all operational", values: []Health{HealthOperational, HealthOperational}, want: HealthOperational},
		{name: "degraded wins over operational", values: []Health{HealthOperational, HealthDegraded}, want: HealthDegraded},
		{name: "down wins over degraded", values: []Health{HealthDegraded, HealthDown, HealthOperational}, want: HealthDown},
		{name: "unknown value counts as down", values: []Health{HealthOperational, Health("bogus")}, want: Health("bogus")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Worst(tt.values...))
		})
	}
}
