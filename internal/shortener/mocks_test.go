package shortener_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/serroba/short-links/internal/shortener"
	"github.com/serroba/short-links/internal/store"
	"go.uber.org/zap"
)

var errBoom = errors.New("boom")

// countingRepo wraps a MemoryStore and counts reads.
type countingRepo struct {
	*store.MemoryStore
	reads     atomic.Int64
	getErr    error
	insertErr error
}

func newCountingRepo() *countingRepo {
	return &countingRepo{MemoryStore: store.NewMemoryStore()}
}

func (r *countingRepo) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	r.reads.Add(1)

	if r.getErr != nil {
		return nil, r.getErr
	}

	return r.MemoryStore.GetByCode(ctx, code)
}

func (r *countingRepo) Insert(ctx context.Context, link *shortener.Link) error {
	if r.insertErr != nil {
		return r.insertErr
	}

	return r.MemoryStore.Insert(ctx, link)
}

// fakeCache is a map-backed cache that records its calls.
type fakeCache struct {
	mu        sync.Mutex
	entries   map[shortener.Code]*shortener.CachedLink
	ttls      map[shortener.Code]time.Duration
	sets      int
	deletes   int
	getErr    error
	setErr    error
	deleteErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: make(map[shortener.Code]*shortener.CachedLink),
		ttls:    make(map[shortener.Code]time.Duration),
	}
}

func (c *fakeCache) Get(_ context.Context, code shortener.Code) (*shortener.CachedLink, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.getErr != nil {
		return nil, c.getErr
	}

	entry, ok := c.entries[code]
	if !ok {
		return nil, shortener.ErrCacheMiss
	}

	return entry, nil
}

func (c *fakeCache) Set(_ context.Context, code shortener.Code, link *shortener.CachedLink, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sets++

	if c.setErr != nil {
		return c.setErr
	}

	c.entries[code] = link
	c.ttls[code] = ttl

	return nil
}

func (c *fakeCache) Delete(_ context.Context, code shortener.Code) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deletes++

	if c.deleteErr != nil {
		return c.deleteErr
	}

	delete(c.entries, code)

	return nil
}

func (c *fakeCache) has(code shortener.Code) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[code]

	return ok
}

// clickLog records clicks without touching the store.
type clickLog struct {
	mu    sync.Mutex
	codes []shortener.Code
}

func (c *clickLog) RecordClick(_ context.Context, code shortener.Code, _ time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.codes = append(c.codes, code)
}

func (c *clickLog) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.codes)
}

// ownerOnly rejects requesters other than the link owner.
type ownerOnly struct{}

func (ownerOnly) Authorize(_ context.Context, requester shortener.OwnerID, link *shortener.Link) error {
	if link.Owner != "" && link.Owner != requester {
		return shortener.ErrForbidden
	}

	return nil
}

type escalations struct {
	mu    sync.Mutex
	codes []shortener.Code
}

func (e *escalations) InvalidationFailed(_ context.Context, code shortener.Code, _ error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.codes = append(e.codes, code)
}

// fixedClock returns a settable clock.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fixedClock {
	return &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// sequenceCodes yields the given codes in order, then repeats the last one.
func sequenceCodes(codes ...string) shortener.CodeGenerator {
	var i atomic.Int64

	return func() string {
		n := int(i.Add(1)) - 1
		if n >= len(codes) {
			n = len(codes) - 1
		}

		return codes[n]
	}
}

type fixture struct {
	repo        *countingRepo
	cache       *fakeCache
	clicks      *clickLog
	escalations *escalations
	clock       *fixedClock
	resolver    *shortener.Resolver
	coordinator *shortener.Coordinator
}

func newFixture(codes shortener.CodeGenerator, logger *zap.Logger) *fixture {
	f := &fixture{
		repo:        newCountingRepo(),
		cache:       newFakeCache(),
		clicks:      &clickLog{},
		escalations: &escalations{},
		clock:       newClock(),
	}

	f.resolver = shortener.NewResolver(f.repo, f.cache, f.clicks, shortener.ResolverConfig{
		CacheTTL: time.Hour,
		Clock:    f.clock.Now,
	}, logger)

	gen := shortener.NewGenerator(codes, nil, 3, logger)

	f.coordinator = shortener.NewCoordinator(f.repo, f.cache, gen, ownerOnly{}, f.escalations,
		shortener.CoordinatorConfig{Clock: f.clock.Now}, logger)

	return f
}
