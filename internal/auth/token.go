// Package auth issues and verifies bearer tokens and decides link ownership.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/serroba/short-links/internal/shortener"
)

// DefaultTokenTTL is the lifetime of tokens minted without an explicit TTL.
const DefaultTokenTTL = 24 * time.Hour

const issuer = "short-links"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

// Tokens signs and verifies HS256 tokens whose subject is the owner id.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) (*Tokens, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	return &Tokens{secret: []byte(secret), now: time.Now}, nil
}

// Issue mints a token for owner. ttl <= 0 uses DefaultTokenTTL.
func (t *Tokens) Issue(owner shortener.OwnerID, ttl time.Duration) (string, error) {
	if owner == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := t.now()
	claims := &jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   string(owner),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses raw and returns the owner it was issued for.
func (t *Tokens) Verify(raw string) (shortener.OwnerID, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return shortener.OwnerID(claims.Subject), nil
}

type ownerKey struct{}

// ContextWithOwner attaches the authenticated owner to ctx.
func ContextWithOwner(ctx context.Context, owner shortener.OwnerID) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the authenticated owner, or "" for anonymous requests.
func OwnerFromContext(ctx context.Context) shortener.OwnerID {
	owner, _ := ctx.Value(ownerKey{}).(shortener.OwnerID)

	return owner
}
