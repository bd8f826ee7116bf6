package embedding

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"

	apperrors "memorycore/pkg/errors"
)

// ResilientProvider wraps an Embedder with a circuit breaker and a single
// bounded retry, per §4.C2 ("callers retry Transient with bounded
// exponential backoff") and §5's per-call Embedder deadline (retry once on
// transient).
type ResilientProvider struct {
	inner Embedder
	cb    *gobreaker.CircuitBreaker
}

// NewResilientProvider wraps inner.
func NewResilientProvider(inner Embedder, name string) *ResilientProvider {
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

func (r *ResilientProvider) Dimension() int { return r.inner.Dimension() }

func (r *ResilientProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := r.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (r *ResilientProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	return backoff.Retry(ctx, func() ([][]float32, error) {
		raw, err := r.cb.Execute(func() (any, error) {
			return r.inner.Embed(ctx, texts)
		})
		vecs, _ := raw.([][]float32)
		if err != nil {
			if !apperrors.IsTransient(err) {
				return vecs, backoff.Permanent(err)
			}
			return vecs, err
		}
		return vecs, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(2))
}
