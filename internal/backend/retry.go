package backend

import (
	"context"
	"math/rand"
	"time"

	"github.com/lendfront/unirouter/internal/config"
)

// Policy is a reusable retry policy: bounded attempts with exponential
// backoff and jitter. Only retryable errors consume the attempt budget;
// a non-retryable error aborts immediately.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      time.Duration

	// Retryable overrides IsRetryable when set.
	Retryable func(error) bool
}

// PolicyFromConfig builds a Policy from the retry configuration.
func PolicyFromConfig(cfg config.RetryConfig) Policy {
	return Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.MaxDelayMs) * time.Millisecond,
		Jitter:      time.Duration(cfg.JitterMs) * time.Millisecond,
	}
}

// Do runs fn until it succeeds, a non-retryable error occurs, the attempt
// budget is exhausted, or the context is cancelled. The last error is
// returned.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) || attempt == attempts {
			return lastErr
		}

		select {
		case <-time.After(p.backoff(attempt)):
		case <-ctx.Done():
			return lastErr
		}
	}
	return lastErr
}

// backoff computes the delay before the next attempt: exponential from
// BaseDelay, capped at MaxDelay, plus up to Jitter of random noise.
func (p Policy) backoff(attempt int) time.Duration {
	delay := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.Jitter)))
	}
	return delay
}
