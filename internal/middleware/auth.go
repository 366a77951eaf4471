package middleware

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/short-links/internal/auth"
	"github.com/serroba/short-links/internal/shortener"
	"go.uber.org/zap"
)

// AuthCookie is read when no Authorization header is sent.
const AuthCookie = "auth_token"

// TokenVerifier resolves a bearer token to its owner.
type TokenVerifier interface {
	Verify(raw string) (shortener.OwnerID, error)
}

// Authenticate attaches the token owner to the request context.
// Requests without a token continue anonymously; an invalid token is rejected with 401.
func Authenticate(api huma.API, verifier TokenVerifier, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		raw := bearerToken(ctx)
		if raw == "" {
			next(ctx)

			return
		}

		owner, err := verifier.Verify(raw)
		if err != nil {
			logger.Debug("rejected bearer token",
				zap.String("path", ctx.URL().Path),
				zap.Error(err),
			)

			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "invalid token")

			return
		}

		next(huma.WithContext(ctx, auth.ContextWithOwner(ctx.Context(), owner)))
	}
}

func bearerToken(ctx huma.Context) string {
	if header := ctx.Header("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}

		return ""
	}

	if cookie, err := huma.ReadCookie(ctx, AuthCookie); err == nil {
		return cookie.Value
	}

	return ""
}
