package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsAfterRetryableFailures(t *testing.T) {
	pol := Policy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	calls := 0
	v, err := Do(context.Background(), pol, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}, func(error) bool { return true })

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ok" {
		t.Fatalf("value = %q, want ok", v)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoNonRetryableFailsImmediately(t *testing.T) {
	pol := Policy{MaxRetries: 5, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	permanent := errors.New("bad request")

	calls := 0
	_, err := Do(context.Background(), pol, func(ctx context.Context) (int, error) {
		calls++
		return 0, permanent
	}, func(err error) bool { return false })

	if !errors.Is(err, permanent) {
		t.Fatalf("error = %v, want the permanent error unwrapped", err)
	}
	var ex *ExhaustedError
	if errors.As(err, &ex) {
		t.Fatalf("non-retryable failure must not be reported as exhaustion")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoExhaustionCarriesAttemptsAndLastError(t *testing.T) {
	pol := Policy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	last := errors.New("still down")

	calls := 0
	_, err := Do(context.Background(), pol, func(ctx context.Context) (int, error) {
		calls++
		return 0, last
	}, func(error) bool { return true })

	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("error = %v, want *ExhaustedError", err)
	}
	if ex.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", ex.Attempts)
	}
	if !errors.Is(err, last) {
		t.Fatalf("exhausted error must wrap the last underlying error")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3 (MaxRetries+1)", calls)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	pol := Policy{MaxRetries: 10, BaseDelay: time.Hour, MaxDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Do(ctx, pol, func(ctx context.Context) (int, error) {
		return 0, errors.New("transient")
	}, func(error) bool { return true })

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancellation did not interrupt the backoff wait")
	}
}

func TestDelayForBounds(t *testing.T) {
	pol := Policy{
		MaxRetries:   5,
		BaseDelay:    1000 * time.Millisecond,
		MaxDelay:     10000 * time.Millisecond,
		JitterFactor: 0.1,
	}

	// Attempt 0: 1000ms ± 10%.
	for _, u := range []float64{0, 0.25, 0.5, 0.75, 0.999} {
		d := delayFor(pol, 0, u)
		if d < 900*time.Millisecond || d > 1100*time.Millisecond {
			t.Fatalf("attempt 0 delay = %v for u=%v, want within [900ms, 1100ms]", d, u)
		}
	}

	// Attempt 5: 32000ms uncapped, so capped at 10000ms ± 10%.
	for _, u := range []float64{0, 0.5, 0.999} {
		d := delayFor(pol, 5, u)
		if d < 9000*time.Millisecond || d > 11000*time.Millisecond {
			t.Fatalf("attempt 5 delay = %v for u=%v, want within [9s, 11s]", d, u)
		}
	}
}

func TestDelayForNeverNegative(t *testing.T) {
	pol := Policy{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, JitterFactor: 1}
	if d := delayFor(pol, 0, 0); d < 0 {
		t.Fatalf("delay = %v, want >= 0", d)
	}
}
