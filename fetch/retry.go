package fetch

import (
	"fmt"
	"time"
)

// RetryPolicy runs an operation up to MaxAttempts times, sleeping between
// failed attempts. The same policy type serves page fetches, document
// downloads, and uploads; each call site picks its own attempt count and
// backoff curve.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff returns the delay to sleep after the given failed attempt
	// (0-based). No sleep happens after the final attempt.
	Backoff func(attempt int) time.Duration
	// Sleep is swappable so tests can record delays instead of waiting.
	// nil means time.Sleep.
	Sleep func(time.Duration)
}

// ExponentialBackoff doubles the delay per failed attempt: 1s, 2s, 4s, ...
func ExponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// FixedBackoff sleeps the same delay after every failed attempt.
func FixedBackoff(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// Do runs op until it succeeds or attempts are exhausted, returning the
// last error.
func (p RetryPolicy) Do(op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if lastErr = op(); lastErr == nil {
			return nil
		}
		if attempt < attempts-1 && p.Backoff != nil {
			sleep(p.Backoff(attempt))
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
