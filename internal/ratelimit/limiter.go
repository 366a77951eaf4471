package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Store counts requests per key in a sliding window.
type Store interface {
	// Record records a request and returns the count of requests in the current window.
	Record(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Exceeded describes the limit a client ran into.
type Exceeded struct {
	Scope Scope
	Limit LimitConfig
	Count int64
}

// RetryAfter is how long the client should wait before trying again.
func (e *Exceeded) RetryAfter() time.Duration {
	return e.Limit.Window
}

// Limiter enforces a Policy on top of a Store.
type Limiter struct {
	store  Store
	policy *Policy
}

func NewLimiter(store Store, policy *Policy) *Limiter {
	return &Limiter{store: store, policy: policy}
}

// Allow records one request of client in scope. It returns nil when every limit holds.
func (l *Limiter) Allow(ctx context.Context, client string, scope Scope) (*Exceeded, error) {
	for _, limit := range l.policy.Limits[scope] {
		key := fmt.Sprintf("%s:%s:%d", client, scope, limit.Window.Milliseconds())

		count, err := l.store.Record(ctx, key, limit.Window)
		if err != nil {
			return nil, err
		}

		if count > limit.Max {
			return &Exceeded{Scope: scope, Limit: limit, Count: count}, nil
		}
	}

	return nil, nil
}
