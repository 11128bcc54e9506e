package worker

import (
	"math"
	"time"
)

// RetryPolicy controls how failed notification deliveries are rescheduled.
// A negative MaxRetries disables retries, so the first failure is final.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// Exhausted reports whether a notification that has failed attempt times
// should go to the dead-letter list instead of being rescheduled.
func (r RetryPolicy) Exhausted(attempt int) bool {
	if r.MaxRetries < 0 {
		return true
	}
	return attempt >= r.MaxRetries
}

// NextDelay is the wait before delivery attempt+1. Attempts are 1-based.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	base := r.InitialDelay
	if base <= 0 {
		base = time.Second
	}
	factor := r.BackoffFactor
	if factor <= 0 {
		factor = 2
	}
	n := max(attempt, 1) - 1

	d := time.Duration(float64(base) * math.Pow(factor, float64(n)))
	if d <= 0 || (r.MaxDelay > 0 && d > r.MaxDelay) {
		// overflow also lands here
		if r.MaxDelay > 0 {
			return r.MaxDelay
		}
		return base
	}
	return d
}

// NextAttemptAt is the UTC time at which a notification that failed for the
// attempt-th time becomes due again.
func (r RetryPolicy) NextAttemptAt(now time.Time, attempt int) time.Time {
	return now.UTC().Add(r.NextDelay(attempt))
}
