package shortener_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/short-links/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCoordinator_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("generated code", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())

		link, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://example.com"})

		require.NoError(t, err)
		assert.Equal(t, shortener.Code("abc123"), link.Code)
		assert.Empty(t, link.CustomAlias)
		assert.True(t, link.Active)
		assert.Zero(t, link.Clicks)
		assert.Nil(t, link.LastUsedAt)
		assert.Equal(t, f.clock.Now(), link.CreatedAt)
	})

	t.Run("custom alias becomes the code", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())

		link, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://example.com", CustomAlias: "promo"})

		require.NoError(t, err)
		assert.Equal(t, shortener.Code("promo"), link.Code)
		assert.Equal(t, "promo", link.CustomAlias)
	})

	t.Run("alias held by an active link", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())

		_, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://a.example", CustomAlias: "promo"})
		require.NoError(t, err)

		_, err = f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://b.example", CustomAlias: "promo"})
		assert.ErrorIs(t, err, shortener.ErrAliasTaken)

		target, err := f.resolver.Resolve(ctx, "promo")
		require.NoError(t, err)
		assert.Equal(t, "https://a.example", target)
	})

	t.Run("alias of a deleted link can be reused", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())

		_, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://a.example", CustomAlias: "promo"})
		require.NoError(t, err)
		require.NoError(t, f.coordinator.Delete(ctx, "promo", ""))

		_, err = f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://b.example", CustomAlias: "promo"})
		assert.NoError(t, err)
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())
		past := f.clock.Now().Add(-time.Second)

		_, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "ftp://example.com"})
		assert.ErrorIs(t, err, shortener.ErrInvalidURL)

		_, err = f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://example.com", CustomAlias: "a b"})
		assert.ErrorIs(t, err, shortener.ErrInvalidAlias)

		_, err = f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://example.com", ExpiresAt: &past})
		assert.ErrorIs(t, err, shortener.ErrInvalidExpiry)
	})

	t.Run("default expiry", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())
		gen := shortener.NewGenerator(sequenceCodes("abc123"), nil, 1, zap.NewNop())
		coordinator := shortener.NewCoordinator(f.repo, f.cache, gen, ownerOnly{}, f.escalations,
			shortener.CoordinatorConfig{DefaultExpiry: 30 * 24 * time.Hour, Clock: f.clock.Now}, zap.NewNop())

		link, err := coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://example.com"})

		require.NoError(t, err)
		require.NotNil(t, link.ExpiresAt)
		assert.Equal(t, f.clock.Now().Add(30*24*time.Hour), *link.ExpiresAt)
	})

	t.Run("owner gets their existing link back", func(t *testing.T) {
		f := newFixture(sequenceCodes("code01", "code02", "code03"), zap.NewNop())

		first, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://example.com", Owner: "alice"})
		require.NoError(t, err)

		again, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "HTTPS://Example.com", Owner: "alice"})
		require.NoError(t, err)
		assert.Equal(t, first.Code, again.Code)

		other, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://example.com", Owner: "bob"})
		require.NoError(t, err)
		assert.NotEqual(t, first.Code, other.Code)

		anonymous, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://example.com"})
		require.NoError(t, err)
		assert.NotEqual(t, first.Code, anonymous.Code)
	})

	t.Run("collisions are retried then exhausted", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())

		_, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://a.example"})
		require.NoError(t, err)

		_, err = f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://b.example"})
		assert.ErrorIs(t, err, shortener.ErrCodeSpaceExhausted)
	})

	t.Run("collision moves to the next candidate", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123", "abc123", "def456"), zap.NewNop())

		_, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://a.example"})
		require.NoError(t, err)

		link, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://b.example"})
		require.NoError(t, err)
		assert.Equal(t, shortener.Code("def456"), link.Code)
	})
}

func TestCoordinator_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidates the cached target", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())

		link, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://old.example"})
		require.NoError(t, err)

		_, err = f.resolver.Resolve(ctx, link.Code)
		require.NoError(t, err)
		require.True(t, f.cache.has(link.Code))

		target := "https://new.example"
		updated, err := f.coordinator.Update(ctx, link.Code, shortener.LinkUpdate{OriginalURL: &target}, "")
		require.NoError(t, err)
		assert.Equal(t, target, updated.OriginalURL)
		assert.False(t, f.cache.has(link.Code))

		resolved, err := f.resolver.Resolve(ctx, link.Code)
		require.NoError(t, err)
		assert.Equal(t, target, resolved)
	})

	t.Run("recomputes the url hash", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())

		link, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://old.example"})
		require.NoError(t, err)

		target := "https://new.example"
		_, err = f.coordinator.Update(ctx, link.Code, shortener.LinkUpdate{OriginalURL: &target}, "")
		require.NoError(t, err)

		found, err := f.resolver.FindByOriginalURL(ctx, target)
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})

	t.Run("another owner is forbidden", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())

		link, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://example.com", Owner: "alice"})
		require.NoError(t, err)

		target := "https://evil.example"
		_, err = f.coordinator.Update(ctx, link.Code, shortener.LinkUpdate{OriginalURL: &target}, "mallory")

		assert.ErrorIs(t, err, shortener.ErrForbidden)

		stored, _ := f.repo.MemoryStore.GetByCode(ctx, link.Code)
		assert.Equal(t, "https://example.com", stored.OriginalURL)
	})

	t.Run("expired or unknown links", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())

		expiresAt := f.clock.Now().Add(time.Minute)
		link, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://example.com", ExpiresAt: &expiresAt})
		require.NoError(t, err)

		f.clock.Advance(time.Hour)

		later := f.clock.Now().Add(time.Hour)
		_, err = f.coordinator.Update(ctx, link.Code, shortener.LinkUpdate{ExpiresAt: &later}, "")
		assert.ErrorIs(t, err, shortener.ErrNotFound)

		_, err = f.coordinator.Update(ctx, "missing", shortener.LinkUpdate{ExpiresAt: &later}, "")
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("extending expiry", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())

		expiresAt := f.clock.Now().Add(time.Minute)
		link, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://example.com", ExpiresAt: &expiresAt})
		require.NoError(t, err)

		later := f.clock.Now().Add(time.Hour)
		_, err = f.coordinator.Update(ctx, link.Code, shortener.LinkUpdate{ExpiresAt: &later}, "")
		require.NoError(t, err)

		f.clock.Advance(30 * time.Minute)

		_, err = f.resolver.Resolve(ctx, link.Code)
		assert.NoError(t, err)
	})

	t.Run("invalidates even when the request is cancelled", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())

		link, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://old.example"})
		require.NoError(t, err)
		_, _ = f.resolver.Resolve(ctx, link.Code)

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		target := "https://new.example"
		_, _ = f.coordinator.Update(cctx, link.Code, shortener.LinkUpdate{OriginalURL: &target}, "")

		assert.False(t, f.cache.has(link.Code))
	})
}

func TestCoordinator_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("soft deletes and purges", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())

		link, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://example.com"})
		require.NoError(t, err)
		_, _ = f.resolver.Resolve(ctx, link.Code)

		require.NoError(t, f.coordinator.Delete(ctx, link.Code, ""))

		assert.False(t, f.cache.has(link.Code))

		_, err = f.resolver.Resolve(ctx, link.Code)
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("is idempotent", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())

		link, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://example.com"})
		require.NoError(t, err)

		require.NoError(t, f.coordinator.Delete(ctx, link.Code, ""))
		require.NoError(t, f.coordinator.Delete(ctx, link.Code, ""))
		require.NoError(t, f.coordinator.Delete(ctx, "never-existed", ""))

		assert.Equal(t, 3, f.cache.deletes)
	})

	t.Run("another owner is forbidden", func(t *testing.T) {
		f := newFixture(sequenceCodes("abc123"), zap.NewNop())

		link, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://example.com", Owner: "alice"})
		require.NoError(t, err)

		err = f.coordinator.Delete(ctx, link.Code, "mallory")
		assert.ErrorIs(t, err, shortener.ErrForbidden)

		require.NoError(t, f.coordinator.Delete(ctx, link.Code, "alice"))
	})

	t.Run("invalidation failure is logged and escalated", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		f := newFixture(sequenceCodes("abc123"), zap.New(core))

		link, err := f.coordinator.Create(ctx, shortener.CreateRequest{OriginalURL: "https://example.com"})
		require.NoError(t, err)

		f.cache.deleteErr = errBoom

		require.NoError(t, f.coordinator.Delete(ctx, link.Code, ""))

		entries := logs.FilterMessage("cache invalidation failed").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "abc123", entries[0].ContextMap()["code"])
		assert.Equal(t, []shortener.Code{"abc123"}, f.escalations.codes)

		stored, _ := f.repo.MemoryStore.GetByCode(ctx, link.Code)
		assert.False(t, stored.Active)
	})
}
