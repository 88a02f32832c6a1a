package ratelimit

import (
	"context"

	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/cart-totals/internal/resilience"
)

// guardedStore routes store calls through a circuit breaker so an unreachable
// Redis fails fast instead of timing out on every request.
type guardedStore struct {
	next    limiter.Store
	breaker *resilience.Breaker
}

// Guard wraps store with breaker. A nil breaker returns store unchanged.
func Guard(store limiter.Store, breaker *resilience.Breaker) limiter.Store {
	if breaker == nil {
		return store
	}
	return &guardedStore{next: store, breaker: breaker}
}

func (s *guardedStore) call(ctx context.Context, fn func(context.Context) (limiter.Context, error)) (limiter.Context, error) {
	var out limiter.Context
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

func (s *guardedStore) Get(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	return s.call(ctx, func(ctx context.Context) (limiter.Context, error) { return s.next.Get(ctx, key, rate) })
}

func (s *guardedStore) Peek(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	return s.call(ctx, func(ctx context.Context) (limiter.Context, error) { return s.next.Peek(ctx, key, rate) })
}

func (s *guardedStore) Reset(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	return s.call(ctx, func(ctx context.Context) (limiter.Context, error) { return s.next.Reset(ctx, key, rate) })
}

func (s *guardedStore) Increment(ctx context.Context, key string, count int64, rate limiter.Rate) (limiter.Context, error) {
	return s.call(ctx, func(ctx context.Context) (limiter.Context, error) {
		return s.next.Increment(ctx, key, count, rate)
	})
}
