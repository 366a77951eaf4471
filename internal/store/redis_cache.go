package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/short-links/internal/shortener"
)

// RedisCache is a Redis-backed shortener.Cache.
// Each entry is a hash under "link:<code>" holding the target URL and optional expiry.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCache creates a new Redis resolution cache.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "link:",
	}
}

func (r *RedisCache) key(code shortener.Code) string {
	return r.prefix + string(code)
}

func (r *RedisCache) Get(ctx context.Context, code shortener.Code) (*shortener.CachedLink, error) {
	result, err := r.client.HGetAll(ctx, r.key(code)).Result()
	if err != nil {
		return nil, err
	}

	target, ok := result["url"]
	if !ok {
		return nil, shortener.ErrCacheMiss
	}

	cached := &shortener.CachedLink{OriginalURL: target}

	if ts, ok := result["expires_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			at := time.Unix(0, nanos)
			cached.ExpiresAt = &at
		}
	}

	return cached, nil
}

// Set writes the entry and its TTL atomically.
func (r *RedisCache) Set(ctx context.Context, code shortener.Code, link *shortener.CachedLink, ttl time.Duration) error {
	key := r.key(code)
	fields := map[string]any{"url": link.OriginalURL}

	if link.ExpiresAt != nil {
		fields["expires_at"] = link.ExpiresAt.UnixNano()
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.PExpire(ctx, key, ttl)

	_, err := pipe.Exec(ctx)

	return err
}

func (r *RedisCache) Delete(ctx context.Context, code shortener.Code) error {
	return r.client.Del(ctx, r.key(code)).Err()
}

var _ shortener.Cache = (*RedisCache)(nil)
