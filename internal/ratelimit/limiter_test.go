package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/short-links/internal/ratelimit"
	"github.com/serroba/short-links/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Record(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

func TestLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("allows requests under limit", func(t *testing.T) {
		limiter := ratelimit.NewLimiter(store.NewRateLimitMemoryStore(), ratelimit.NewPolicy(5, 1))

		for range 5 {
			exceeded, err := limiter.Allow(ctx, "client1", ratelimit.ScopeRead)

			require.NoError(t, err)
			assert.Nil(t, exceeded)
		}
	})

	t.Run("denies requests over limit", func(t *testing.T) {
		limiter := ratelimit.NewLimiter(store.NewRateLimitMemoryStore(), ratelimit.NewPolicy(0, 2))

		for range 2 {
			exceeded, _ := limiter.Allow(ctx, "client1", ratelimit.ScopeWrite)
			require.Nil(t, exceeded)
		}

		exceeded, err := limiter.Allow(ctx, "client1", ratelimit.ScopeWrite)

		require.NoError(t, err)
		require.NotNil(t, exceeded)
		assert.Equal(t, ratelimit.ScopeWrite, exceeded.Scope)
		assert.Equal(t, int64(3), exceeded.Count)
		assert.Equal(t, time.Minute, exceeded.RetryAfter())
	})

	t.Run("tracks clients and scopes independently", func(t *testing.T) {
		limiter := ratelimit.NewLimiter(store.NewRateLimitMemoryStore(), ratelimit.NewPolicy(1, 1))

		exceeded, _ := limiter.Allow(ctx, "client1", ratelimit.ScopeWrite)
		assert.Nil(t, exceeded)

		exceeded, _ = limiter.Allow(ctx, "client1", ratelimit.ScopeWrite)
		assert.NotNil(t, exceeded, "client1 should be rate limited")

		exceeded, _ = limiter.Allow(ctx, "client1", ratelimit.ScopeRead)
		assert.Nil(t, exceeded, "reads have their own budget")

		exceeded, _ = limiter.Allow(ctx, "client2", ratelimit.ScopeWrite)
		assert.Nil(t, exceeded, "client2 should still be allowed")
	})

	t.Run("unlimited scope", func(t *testing.T) {
		limiter := ratelimit.NewLimiter(failingStore{}, ratelimit.NewPolicy(0, 1))

		exceeded, err := limiter.Allow(ctx, "client1", ratelimit.ScopeRead)

		require.NoError(t, err, "no limit means no store call")
		assert.Nil(t, exceeded)
	})

	t.Run("store errors are returned", func(t *testing.T) {
		limiter := ratelimit.NewLimiter(failingStore{}, ratelimit.NewPolicy(1, 1))

		_, err := limiter.Allow(ctx, "client1", ratelimit.ScopeRead)

		assert.Error(t, err)
	})
}
