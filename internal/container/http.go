package container

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/short-links/internal/analytics"
	"github.com/serroba/short-links/internal/auth"
	"github.com/serroba/short-links/internal/handlers"
	"github.com/serroba/short-links/internal/health"
	"github.com/serroba/short-links/internal/middleware"
	"github.com/serroba/short-links/internal/ratelimit"
	"github.com/serroba/short-links/internal/shortener"
	"github.com/serroba/short-links/internal/store"
	"go.uber.org/zap"
)

// RateLimitPackage provides the per-client limiter selected by RateLimitDriver.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratelimit.Limiter, error) {
		options := do.MustInvoke[*Options](i)
		policy := ratelimit.NewPolicy(int64(options.ReadsPerMinute), int64(options.WritesPerMinute))

		switch options.RateLimitDriver {
		case "redis":
			return ratelimit.NewLimiter(store.NewRateLimitRedisStore(redisClient(i)), policy), nil
		case "memory":
			return ratelimit.NewLimiter(store.NewRateLimitMemoryStore(), policy), nil
		default:
			return nil, fmt.Errorf("unknown rate limit driver %q", options.RateLimitDriver)
		}
	})
}

// AuthPackage provides bearer token signing and verification.
func AuthPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*auth.Tokens, error) {
		return auth.NewTokens(do.MustInvoke[*Options](i).JWTSecret)
	})
}

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		api := humachi.New(do.MustInvoke[*chi.Mux](i), huma.DefaultConfig("Short Links", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))

		if options.RateLimitDriver != "none" {
			api.UseMiddleware(middleware.RateLimit(api, do.MustInvoke[*ratelimit.Limiter](i), logger))
		}

		var opts []handlers.Option

		if options.JWTSecret != "" {
			api.UseMiddleware(middleware.Authenticate(api, do.MustInvoke[*auth.Tokens](i), logger))
			opts = append(opts, handlers.RequireIdentity())
		}

		if options.Events {
			opts = append(opts, handlers.WithCreatedEvents(do.MustInvoke[*analytics.Publishers](i).LinkCreated))
		}

		handlers.RegisterRoutes(api, handlers.NewLinkHandler(
			do.MustInvoke[*shortener.Coordinator](i),
			do.MustInvoke[*shortener.Resolver](i),
			options.PublicBaseURL(),
			logger,
			opts...,
		))

		health.RegisterRoutes(api, health.NewHandler(healthChecks(i, options)))

		return api, nil
	})
}

func healthChecks(i *do.Injector, options *Options) map[string]health.Checker {
	checks := map[string]health.Checker{
		"store": health.CheckerFunc(do.MustInvoke[Owned[Database]](i).Value.Ping),
	}

	if options.CacheDriver == "redis" || options.Events || options.RateLimitDriver == "redis" {
		checks["redis"] = health.NewRedisChecker(redisClient(i))
	}

	return checks
}
