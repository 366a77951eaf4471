package container

import (
	"fmt"
	"time"

	"github.com/samber/do"
	"github.com/serroba/short-links/internal/shortener"
	"github.com/serroba/short-links/internal/store"
)

const memoryCacheCleanup = time.Minute

// CachePackage provides the resolution cache selected by CacheDriver.
func CachePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.Cache, error) {
		options := do.MustInvoke[*Options](i)

		switch options.CacheDriver {
		case "redis":
			return store.NewRedisCache(redisClient(i)), nil
		case "memory":
			return store.NewMemoryCache(memoryCacheCleanup), nil
		case "none":
			return store.NoopCache{}, nil
		default:
			return nil, fmt.Errorf("unknown cache driver %q", options.CacheDriver)
		}
	})
}
