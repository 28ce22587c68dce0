package llm

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig holds retry configuration for LLM requests.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per endpoint.
	MaxAttempts int

	// BackoffBase is the initial backoff duration.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to backoff on each retry.
	BackoffMultiplier float64

	// MaxBackoff caps the maximum backoff duration.
	MaxBackoff time.Duration
}

// DefaultRetryConfig keeps a chat turn under a minute in the worst case.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       1 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        10 * time.Second,
	}
}

// Backoff computes the wait after the given 1-based attempt: exponential,
// capped at MaxBackoff, with +/-25% jitter.
func (r RetryConfig) Backoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= r.BackoffMultiplier
	}

	backoff := time.Duration(float64(r.BackoffBase) * multiplier)
	if backoff > r.MaxBackoff {
		backoff = r.MaxBackoff
	}

	jitter := float64(backoff) * 0.25 * (rand.Float64()*2 - 1)
	return backoff + time.Duration(jitter)
}

// run calls fn up to MaxAttempts times, waiting Backoff between transient
// failures. A fatal error or a cancelled ctx ends the loop at once. onRetry,
// when set, sees each failure that will be retried.
func (r RetryConfig) run(ctx context.Context, fn func() (*Response, error), onRetry func(attempt int, wait time.Duration, err error)) (*Response, error) {
	attempts := max(r.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if IsFatal(err) || attempt == attempts {
			break
		}

		wait := r.Backoff(attempt)
		if onRetry != nil {
			onRetry(attempt, wait, err)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}
