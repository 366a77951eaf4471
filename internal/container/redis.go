package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
)

// RedisPackage provides the shared Redis client used by the cache and the event streams.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (Owned[*redis.Client], error) {
		options := do.MustInvoke[*Options](i)

		return Owned[*redis.Client]{Value: redis.NewClient(&redis.Options{Addr: options.RedisAddr})}, nil
	})
}

func redisClient(i *do.Injector) *redis.Client {
	return do.MustInvoke[Owned[*redis.Client]](i).Value
}
