// Package retry runs an operation under an explicit attempt/backoff policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Backoff returns the wait before the attempt following failed attempt n (1-based).
type Backoff func(attempt int) time.Duration

// Linear waits attempt × step: 1s, 2s, 3s for a 1s step.
func Linear(step time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Exponential doubles from min up to max and removes up to half of it as jitter.
func Exponential(min, max time.Duration) Backoff {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		exp := max
		if attempt < 32 {
			if d := min * time.Duration(1<<uint(attempt-1)); d > 0 && d < max {
				exp = d
			}
		}
		if half := int64(exp) / 2; half > 0 {
			exp -= time.Duration(rand.Int63n(half))
		}
		return exp
	}
}

// None never waits.
func None() Backoff {
	return func(int) time.Duration { return 0 }
}

// State describes one failed attempt; handed to Policy.OnRetry.
type State struct {
	Attempt     int
	MaxAttempts int
	Err         error
	Wait        time.Duration
}

// Policy bounds how an operation is retried.
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
	// AttemptTimeout, when set, bounds every single attempt with its own deadline.
	AttemptTimeout time.Duration
	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(State)
}

// LinearPolicy is the fetcher default: max attempts with attempt × delay waits.
func LinearPolicy(maxAttempts int, delay time.Duration) Policy {
	return Policy{MaxAttempts: maxAttempts, Backoff: Linear(delay)}
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Do calls fn until it succeeds, returns a permanent error, the policy is
// exhausted, or ctx is done. The last error is returned.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	max := p.attempts()
	var lastErr error
	for attempt := 1; attempt <= max; attempt++ {
		v, err := runAttempt(ctx, p.AttemptTimeout, fn)
		if err == nil {
			return v, nil
		}
		lastErr = err

		var pe *permanentError
		if errors.As(err, &pe) {
			return zero, pe.err
		}
		if attempt == max {
			break
		}

		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		if p.OnRetry != nil {
			p.OnRetry(State{Attempt: attempt, MaxAttempts: max, Err: err, Wait: wait})
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, errors.Join(lastErr, err)
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", max, lastErr)
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(actx)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
