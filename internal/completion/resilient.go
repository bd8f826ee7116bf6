package completion

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"

	apperrors "memorycore/pkg/errors"
)

// ResilientProvider wraps a Provider with a circuit breaker and bounded
// exponential backoff, replacing teacher's hand-rolled CircuitBreaker
// (internal/repository/retry.go) with the real libraries per §7's retry
// policy: 2 retries, base 200ms, cap 2s, only for Transient Backend errors.
type ResilientProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker
}

// NewResilientProvider wraps inner. name identifies the breaker in metrics
// and logs (e.g. "completer").
func NewResilientProvider(inner Provider, name string) *ResilientProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})
	return &ResilientProvider{inner: inner, cb: cb}
}

func (r *ResilientProvider) IsAvailable() bool { return r.inner.IsAvailable() }

func (r *ResilientProvider) Complete(ctx context.Context, prompt string, opts Options) (Result, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	return backoff.Retry(ctx, func() (Result, error) {
		raw, err := r.cb.Execute(func() (any, error) {
			return r.inner.Complete(ctx, prompt, opts)
		})
		result, _ := raw.(Result)
		if err != nil {
			if !apperrors.IsTransient(err) {
				return result, backoff.Permanent(err)
			}
			return result, err
		}
		return result, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(3))
}
