package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes when a Breaker opens and how long it stays open.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker. Each failure is a call whose
	// retries were all exhausted.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker rejects calls before letting a
	// single probe through.
	OpenTimeout time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second}
}

// Breaker runs calls through retry.DoValue inside a circuit breaker, so a
// store that keeps failing is left alone instead of being hammered by every
// caller.
type Breaker[T any] struct {
	cb     *gobreaker.CircuitBreaker[T]
	policy Policy
}

func NewBreaker[T any](name string, policy Policy, cfg BreakerConfig, logger zerolog.Logger) *Breaker[T] {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](st), policy: policy}
}

// Execute runs fn with retries. While the breaker is open it fails fast with
// gobreaker.ErrOpenState.
func (b *Breaker[T]) Execute(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	return b.cb.Execute(func() (T, error) {
		return DoValue(ctx, b.policy, fn)
	})
}

func (b *Breaker[T]) State() string {
	return b.cb.State().String()
}
