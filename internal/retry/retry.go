// Package retry provides a bounded retry executor with exponential
// backoff and jitter, parameterized by a retryability predicate.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy controls the retry schedule. A zero JitterFactor disables
// jitter; MaxRetries counts retries, not attempts (MaxRetries=3 means
// up to 4 attempts).
type Policy struct {
	MaxRetries   int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterFactor float64 // in [0,1]
}

// ExhaustedError is returned after every attempt failed retryably.
// Callers can distinguish it from a non-retryable failure, which is
// returned unwrapped.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Do executes op until it succeeds, fails non-retryably, or the policy
// is exhausted. The backoff for attempt n (0-indexed) is
// min(BaseDelay·2ⁿ, MaxDelay) perturbed by uniform jitter in
// ±JitterFactor·capped, floored at zero. No delay is applied after the
// final attempt. Backoff waits respect ctx cancellation.
func Do[T any](
	ctx context.Context,
	pol Policy,
	op func(ctx context.Context) (T, error),
	retryable func(error) bool,
) (T, error) {
	var zero T
	var lastErr error

	attempts := pol.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		if retryable != nil && !retryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		if err := sleep(ctx, delayFor(pol, attempt, rand.Float64())); err != nil {
			return zero, err
		}
	}

	return zero, &ExhaustedError{Attempts: attempts, Err: lastErr}
}

// delayFor computes the backoff for one attempt. u is a uniform sample
// in [0,1) mapped onto ±JitterFactor·capped.
func delayFor(pol Policy, attempt int, u float64) time.Duration {
	capped := pol.BaseDelay
	for i := 0; i < attempt && capped > 0 && capped < pol.MaxDelay; i++ {
		capped <<= 1
	}
	// Doubling may overflow past MaxDelay (or wrap negative) for large
	// attempt indexes; clamp either way.
	if capped > pol.MaxDelay || capped < 0 {
		capped = pol.MaxDelay
	}

	jitter := time.Duration((2*u - 1) * pol.JitterFactor * float64(capped))
	d := capped + jitter
	if d < 0 {
		d = 0
	}
	return d
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
