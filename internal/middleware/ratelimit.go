package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/short-links/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimit rejects clients over their budget with 429.
// A failing limiter store lets requests through.
func RateLimit(api huma.API, limiter *ratelimit.Limiter, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		scope, limited := ratelimit.ScopeOf(ctx.Operation(), ctx.Method())
		if !limited {
			next(ctx)

			return
		}

		exceeded, err := limiter.Allow(ctx.Context(), clientKey(ctx), scope)
		if err != nil {
			logger.Warn("rate limit check failed", zap.String("path", operationPath(ctx)), zap.Error(err))
			next(ctx)

			return
		}

		if exceeded != nil {
			logger.Info("rate limit exceeded",
				zap.String("path", operationPath(ctx)),
				zap.String("scope", string(exceeded.Scope)),
				zap.Int64("count", exceeded.Count),
			)

			ctx.SetHeader("Retry-After", strconv.Itoa(int(exceeded.RetryAfter().Seconds())))
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")

			return
		}

		next(ctx)
	}
}

// clientKey identifies a client by IP and User-Agent.
func clientKey(ctx huma.Context) string {
	hash := sha256.Sum256([]byte(clientIP(ctx) + "|" + ctx.Header("User-Agent")))

	return hex.EncodeToString(hash[:])
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}
