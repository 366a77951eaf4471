package shortener

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultCacheTTL is the upper bound on how long a resolved link stays cached.
const DefaultCacheTTL = time.Hour

// ResolverConfig tunes the Resolver.
type ResolverConfig struct {
	CacheTTL    time.Duration
	CallTimeout time.Duration
	Clock       Clock
}

// Resolver serves code lookups through the cache and falls back to the durable store.
type Resolver struct {
	repo        Repository
	cache       Cache
	clicks      ClickRecorder
	cacheTTL    time.Duration
	callTimeout time.Duration
	now         Clock
	logger      *zap.Logger
}

// NewResolver creates a Resolver. Zero config values fall back to package defaults.
func NewResolver(repo Repository, cache Cache, clicks ClickRecorder, cfg ResolverConfig, logger *zap.Logger) *Resolver {
	return &Resolver{
		repo:        repo,
		cache:       cache,
		clicks:      clicks,
		cacheTTL:    positiveOr(cfg.CacheTTL, DefaultCacheTTL),
		callTimeout: positiveOr(cfg.CallTimeout, DefaultCallTimeout),
		now:         cfg.Clock.orDefault(),
		logger:      logger,
	}
}

// Resolve returns the redirect target for code and records a click.
// Absent, inactive and expired links all yield ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, code Code) (string, error) {
	now := r.now()

	if target, ok := r.fromCache(ctx, code, now); ok {
		r.clicks.RecordClick(ctx, code, now)

		return target, nil
	}

	link, err := r.load(ctx, code)
	if err != nil {
		return "", err
	}

	if !link.Active {
		return "", ErrNotFound
	}

	if link.Expired(now) {
		r.expire(ctx, code)

		return "", ErrNotFound
	}

	r.populate(ctx, link, now)
	r.clicks.RecordClick(ctx, code, now)

	return link.OriginalURL, nil
}

// GetStats reads the counters of a resolvable link straight from the store.
func (r *Resolver) GetStats(ctx context.Context, code Code) (*LinkStats, error) {
	link, err := r.load(ctx, code)
	if err != nil {
		return nil, err
	}

	if !link.Resolvable(r.now()) {
		return nil, ErrNotFound
	}

	return link.Stats(), nil
}

// FindByOriginalURL returns the resolvable links pointing at rawURL after normalization.
func (r *Resolver) FindByOriginalURL(ctx context.Context, rawURL string) ([]*Link, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	hash, err := HashOf(rawURL)
	if err != nil {
		return nil, err
	}

	var links []*Link

	err = call(ctx, r.callTimeout, func(ctx context.Context) error {
		var err error
		links, err = r.repo.FindByURLHash(ctx, hash)

		return err
	})
	if err != nil {
		return nil, err
	}

	now := r.now()
	resolvable := make([]*Link, 0, len(links))

	for _, link := range links {
		if link.Resolvable(now) {
			resolvable = append(resolvable, link)
		}
	}

	return resolvable, nil
}

func (r *Resolver) load(ctx context.Context, code Code) (*Link, error) {
	var link *Link

	err := call(ctx, r.callTimeout, func(ctx context.Context) error {
		var err error
		link, err = r.repo.GetByCode(ctx, code)

		return err
	})
	if err != nil {
		return nil, err
	}

	return link, nil
}

// fromCache reports a usable cache hit. Cache failures count as misses.
func (r *Resolver) fromCache(ctx context.Context, code Code, now time.Time) (string, bool) {
	var cached *CachedLink

	err := call(ctx, r.callTimeout, func(ctx context.Context) error {
		var err error
		cached, err = r.cache.Get(ctx, code)

		return err
	})
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			r.logger.Warn("cache read failed, falling back to store",
				zap.String("code", string(code)),
				zap.Error(err),
			)
		}

		return "", false
	}

	if cached.ExpiresAt != nil && !cached.ExpiresAt.After(now) {
		r.purge(ctx, code)

		return "", false
	}

	return cached.OriginalURL, true
}

func (r *Resolver) populate(ctx context.Context, link *Link, now time.Time) {
	ttl := r.cacheTTL

	if link.ExpiresAt != nil {
		ttl = min(ttl, link.ExpiresAt.Sub(now))
	}

	if ttl <= 0 {
		return
	}

	err := call(ctx, r.callTimeout, func(ctx context.Context) error {
		return r.cache.Set(ctx, link.Code, &CachedLink{
			OriginalURL: link.OriginalURL,
			ExpiresAt:   link.ExpiresAt,
		}, ttl)
	})
	if err != nil {
		r.logger.Warn("cache populate failed",
			zap.String("code", string(link.Code)),
			zap.Error(err),
		)
	}
}

// expire soft-deletes a link found expired at read time and purges its cache entry.
func (r *Resolver) expire(ctx context.Context, code Code) {
	ctx, cancel := detached(ctx, r.callTimeout)
	defer cancel()

	if _, err := r.repo.SoftDelete(ctx, code); err != nil {
		r.logger.Warn("failed to deactivate expired link",
			zap.String("code", string(code)),
			zap.Error(classify(err)),
		)
	}

	r.purge(ctx, code)
}

func (r *Resolver) purge(ctx context.Context, code Code) {
	err := call(ctx, r.callTimeout, func(ctx context.Context) error {
		return r.cache.Delete(ctx, code)
	})
	if err != nil {
		r.logger.Warn("cache purge failed",
			zap.String("code", string(code)),
			zap.Error(err),
		)
	}
}
