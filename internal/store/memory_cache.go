package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/serroba/short-links/internal/shortener"
)

// MemoryCache is an in-process shortener.Cache backed by go-cache.
// Suitable for a single instance; entries are not shared between processes.
type MemoryCache struct {
	entries *gocache.Cache
}

// NewMemoryCache creates an in-process cache that sweeps expired entries every cleanupInterval.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

func (m *MemoryCache) Get(_ context.Context, code shortener.Code) (*shortener.CachedLink, error) {
	v, ok := m.entries.Get(string(code))
	if !ok {
		return nil, shortener.ErrCacheMiss
	}

	cached := v.(shortener.CachedLink)

	return &cached, nil
}

func (m *MemoryCache) Set(_ context.Context, code shortener.Code, link *shortener.CachedLink, ttl time.Duration) error {
	m.entries.Set(string(code), *link, ttl)

	return nil
}

func (m *MemoryCache) Delete(_ context.Context, code shortener.Code) error {
	m.entries.Delete(string(code))

	return nil
}

// NoopCache never stores anything. Every Get is a miss.
type NoopCache struct{}

func (NoopCache) Get(context.Context, shortener.Code) (*shortener.CachedLink, error) {
	return nil, shortener.ErrCacheMiss
}

func (NoopCache) Set(context.Context, shortener.Code, *shortener.CachedLink, time.Duration) error {
	return nil
}

func (NoopCache) Delete(context.Context, shortener.Code) error {
	return nil
}

var (
	_ shortener.Cache = (*MemoryCache)(nil)
	_ shortener.Cache = NoopCache{}
)
