// Package retry re-runs failing store calls with exponential backoff and
// guards them with a circuit breaker.
package retry

import (
	"context"
	"time"
)

// Policy controls how often and how patiently Do retries.
type Policy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// InitialDelay is the wait before the first retry. It doubles after
	// every further failure.
	InitialDelay time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, InitialDelay: 100 * time.Millisecond}
}

// Do calls fn until it succeeds or the policy is exhausted, returning the last
// error. A cancelled context stops the wait and returns ctx.Err().
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for functions that produce a result.
func DoValue[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	delay := p.InitialDelay
	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= p.MaxRetries {
			return v, err
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			var zero T
			return zero, ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}
