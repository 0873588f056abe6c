package services

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy bounds retries of transient failures with exponential backoff
// and jitter.
type RetryPolicy struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
	Jitter      float64
}

// DefaultRetryPolicy returns the policy applied when a source does not
// configure its own.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     15 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.2,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultRetryPolicy().MaxAttempts
	}
	if p.InitialWait <= 0 {
		p.InitialWait = DefaultRetryPolicy().InitialWait
	}
	if p.MaxWait < p.InitialWait {
		p.MaxWait = p.InitialWait
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultRetryPolicy().Multiplier
	}
	return p
}

// Wait returns the backoff delay before the given 1-based attempt.
func (p RetryPolicy) Wait(attempt int) time.Duration {
	p = p.normalized()
	wait := float64(p.InitialWait) * math.Pow(p.Multiplier, float64(attempt-1))
	if wait > float64(p.MaxWait) {
		wait = float64(p.MaxWait)
	}
	if p.Jitter > 0 {
		wait += wait * p.Jitter * (rand.Float64()*2 - 1)
	}
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

// Retry runs fn until it succeeds, returns a non-retryable error, the policy
// is exhausted, or ctx is cancelled. The last error is returned on exhaustion.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	policy = policy.normalized()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !Retryable(err) || attempt == policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.Wait(attempt)):
		}
	}
	return lastErr
}
