package cloudflare

import (
	"math/rand/v2"
	"time"
)

// RetryPolicy controls how failed requests are repeated
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int
	// BaseDelay is the delay unit; attempt n waits BaseDelay*2^n plus jitter below BaseDelay
	BaseDelay time.Duration
	// MaxDelay caps every computed delay
	MaxDelay time.Duration
}

// DefaultRetryPolicy is used when no policy is configured
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 3,
	BaseDelay:  time.Second,
	MaxDelay:   30 * time.Second,
}

// exponentialJitter implements backoff.BackOff with the schedule
// delay = base * 2^attempt + uniform[0, base), capped at max
type exponentialJitter struct {
	base    time.Duration
	max     time.Duration
	attempt int
	jitter  func(n int64) int64
}

func newExponentialJitter(p RetryPolicy) *exponentialJitter {
	return &exponentialJitter{
		base: p.BaseDelay,
		max:  p.MaxDelay,
		//nolint:gosec // G404: retry jitter does not need cryptographic randomness
		jitter: rand.Int64N,
	}
}

// NextBackOff returns the delay before the next attempt
func (b *exponentialJitter) NextBackOff() time.Duration {
	d := b.delay(b.attempt)
	b.attempt++
	return d
}

// Reset restarts the schedule from the first attempt
func (b *exponentialJitter) Reset() {
	b.attempt = 0
}

func (b *exponentialJitter) delay(attempt int) time.Duration {
	if b.base <= 0 {
		return 0
	}

	// Shifting past 62 bits overflows; anything that large is capped anyway
	if attempt > 62 {
		return b.max
	}
	d := b.base << attempt
	if d <= 0 || d>>attempt != b.base {
		return b.max
	}

	d += time.Duration(b.jitter(int64(b.base)))
	if b.max > 0 && d > b.max {
		return b.max
	}
	return d
}
