package retry

import "time"

// ExponentialBackoff returns delay based on attempt number.
// The delay doubles with each attempt (base * 2^attempt) and is capped so
// re-enqueued tasks never sleep for unbounded stretches.
func ExponentialBackoff(attempt int, base time.Duration) time.Duration {
	const maxDelay = 30 * time.Second
	if attempt > 30 {
		return maxDelay
	}
	d := base * (1 << attempt)
	if d > maxDelay || d <= 0 {
		return maxDelay
	}
	return d
}
