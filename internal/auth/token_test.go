package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/serroba/short-links/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		tokens, err := auth.NewTokens("secret")
		require.NoError(t, err)

		raw, err := tokens.Issue("alice", time.Hour)
		require.NoError(t, err)

		owner, err := tokens.Verify(raw)
		require.NoError(t, err)
		assert.Equal(t, "alice", string(owner))
	})

	t.Run("rejects tokens signed with another secret", func(t *testing.T) {
		issuer, _ := auth.NewTokens("secret")
		verifier, _ := auth.NewTokens("other")

		raw, err := issuer.Issue("alice", time.Hour)
		require.NoError(t, err)

		_, err = verifier.Verify(raw)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		tokens, _ := auth.NewTokens("secret")

		claims := &jwt.RegisteredClaims{
			Issuer:    "short-links",
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = tokens.Verify(raw)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		tokens, _ := auth.NewTokens("secret")

		_, err := tokens.Verify("not-a-token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("requires a secret and a subject", func(t *testing.T) {
		_, err := auth.NewTokens("")
		assert.ErrorIs(t, err, auth.ErrEmptySecret)

		tokens, _ := auth.NewTokens("secret")
		_, err = tokens.Issue("", time.Hour)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestOwnerContext(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, auth.OwnerFromContext(ctx))
	assert.Equal(t, "bob", string(auth.OwnerFromContext(auth.ContextWithOwner(ctx, "bob"))))
}
