package shortener

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultInvalidationTimeout bounds the cache purge that follows a committed mutation.
const DefaultInvalidationTimeout = 3 * time.Second

// CoordinatorConfig tunes the Coordinator.
type CoordinatorConfig struct {
	// DefaultExpiry is applied to links created without an explicit expiry. Zero means never.
	DefaultExpiry       time.Duration
	CallTimeout         time.Duration
	InvalidationTimeout time.Duration
	Clock               Clock
}

// Coordinator performs create, update and delete.
// Every mutation writes the store first and purges the cache afterwards.
type Coordinator struct {
	repo                Repository
	cache               Cache
	generator           *Generator
	authorizer          Authorizer
	escalator           Escalator
	defaultExpiry       time.Duration
	callTimeout         time.Duration
	invalidationTimeout time.Duration
	now                 Clock
	logger              *zap.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(
	repo Repository,
	cache Cache,
	generator *Generator,
	authorizer Authorizer,
	escalator Escalator,
	cfg CoordinatorConfig,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		repo:                repo,
		cache:               cache,
		generator:           generator,
		authorizer:          authorizer,
		escalator:           escalator,
		defaultExpiry:       cfg.DefaultExpiry,
		callTimeout:         positiveOr(cfg.CallTimeout, DefaultCallTimeout),
		invalidationTimeout: positiveOr(cfg.InvalidationTimeout, DefaultInvalidationTimeout),
		now:                 cfg.Clock.orDefault(),
		logger:              logger,
	}
}

// Create stores a new link under the requested alias or a freshly allocated code.
func (c *Coordinator) Create(ctx context.Context, req CreateRequest) (*Link, error) {
	if err := ValidateURL(req.OriginalURL); err != nil {
		return nil, err
	}

	hash, err := HashOf(req.OriginalURL)
	if err != nil {
		return nil, err
	}

	now := c.now()

	expiresAt, err := c.expiry(req.ExpiresAt, now)
	if err != nil {
		return nil, err
	}

	link := &Link{
		OriginalURL: req.OriginalURL,
		URLHash:     hash,
		Owner:       req.Owner,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
		Active:      true,
	}

	if req.CustomAlias != "" {
		return c.createWithAlias(ctx, link, req.CustomAlias)
	}

	if req.Owner != "" {
		existing, err := c.ownedLink(ctx, req.Owner, hash, now)
		if err != nil {
			return nil, err
		}

		if existing != nil {
			return existing, nil
		}
	}

	code, err := c.generator.Allocate(ctx, func(ctx context.Context, code Code) error {
		link.Code = code

		return c.insert(ctx, link)
	})
	if err != nil {
		if errors.Is(err, ErrCodeSpaceExhausted) {
			c.logger.Error("could not allocate a short code", zap.Error(err))
		}

		return nil, err
	}

	c.logger.Info("link created",
		zap.String("code", string(code)),
		zap.String("owner", string(req.Owner)),
	)

	return link, nil
}

func (c *Coordinator) createWithAlias(ctx context.Context, link *Link, alias string) (*Link, error) {
	code, err := ValidateAlias(alias)
	if err != nil {
		return nil, err
	}

	link.Code = code
	link.CustomAlias = string(code)

	if err := c.insert(ctx, link); err != nil {
		if errors.Is(err, ErrCodeConflict) {
			return nil, ErrAliasTaken
		}

		return nil, err
	}

	c.logger.Info("link created with alias",
		zap.String("code", string(code)),
		zap.String("owner", string(link.Owner)),
	)

	return link, nil
}

// ownedLink returns a resolvable generated link of owner for the same URL, if any.
func (c *Coordinator) ownedLink(ctx context.Context, owner OwnerID, hash URLHash, now time.Time) (*Link, error) {
	var links []*Link

	err := call(ctx, c.callTimeout, func(ctx context.Context) error {
		var err error
		links, err = c.repo.FindByURLHash(ctx, hash)

		return err
	})
	if err != nil {
		return nil, err
	}

	for _, link := range links {
		if link.Owner == owner && link.CustomAlias == "" && link.Resolvable(now) {
			return link, nil
		}
	}

	return nil, nil
}

// Update changes the target or expiry of a resolvable link.
func (c *Coordinator) Update(ctx context.Context, code Code, update LinkUpdate, requester OwnerID) (*Link, error) {
	now := c.now()

	if update.OriginalURL != nil {
		if err := ValidateURL(*update.OriginalURL); err != nil {
			return nil, err
		}

		hash, err := HashOf(*update.OriginalURL)
		if err != nil {
			return nil, err
		}

		update.URLHash = hash
	}

	if update.ExpiresAt != nil && !update.ExpiresAt.After(now) {
		return nil, ErrInvalidExpiry
	}

	link, err := c.load(ctx, code)
	if err != nil {
		return nil, err
	}

	if !link.Resolvable(now) {
		return nil, ErrNotFound
	}

	if err := c.authorizer.Authorize(ctx, requester, link); err != nil {
		return nil, err
	}

	defer c.invalidate(ctx, code)

	var updated *Link

	err = call(ctx, c.callTimeout, func(ctx context.Context) error {
		var err error
		updated, err = c.repo.Update(ctx, code, update)

		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("link updated", zap.String("code", string(code)))

	return updated, nil
}

// Delete soft-deletes the link for code. Deleting an unknown or inactive code succeeds.
func (c *Coordinator) Delete(ctx context.Context, code Code, requester OwnerID) error {
	link, err := c.load(ctx, code)

	switch {
	case errors.Is(err, ErrNotFound):
		c.invalidate(ctx, code)

		return nil
	case err != nil:
		return err
	case !link.Active:
		c.invalidate(ctx, code)

		return nil
	}

	if err := c.authorizer.Authorize(ctx, requester, link); err != nil {
		return err
	}

	defer c.invalidate(ctx, code)

	var deleted bool

	err = call(ctx, c.callTimeout, func(ctx context.Context) error {
		var err error
		deleted, err = c.repo.SoftDelete(ctx, code)

		return err
	})
	if err != nil {
		return err
	}

	if deleted {
		c.logger.Info("link deleted", zap.String("code", string(code)))
	}

	return nil
}

func (c *Coordinator) expiry(requested *time.Time, now time.Time) (*time.Time, error) {
	if requested != nil {
		if !requested.After(now) {
			return nil, ErrInvalidExpiry
		}

		return requested, nil
	}

	if c.defaultExpiry <= 0 {
		return nil, nil
	}

	at := now.Add(c.defaultExpiry)

	return &at, nil
}

func (c *Coordinator) insert(ctx context.Context, link *Link) error {
	return call(ctx, c.callTimeout, func(ctx context.Context) error {
		return c.repo.Insert(ctx, link)
	})
}

func (c *Coordinator) load(ctx context.Context, code Code) (*Link, error) {
	var link *Link

	err := call(ctx, c.callTimeout, func(ctx context.Context) error {
		var err error
		link, err = c.repo.GetByCode(ctx, code)

		return err
	})

	return link, err
}

// invalidate purges the cache entry for code even when ctx is already cancelled.
// Failures are logged and escalated; they never fail the mutation.
func (c *Coordinator) invalidate(ctx context.Context, code Code) {
	ctx, cancel := detached(ctx, c.invalidationTimeout)
	defer cancel()

	err := classify(c.cache.Delete(ctx, code))
	if err == nil {
		return
	}

	c.logger.Error("cache invalidation failed",
		zap.String("code", string(code)),
		zap.Error(err),
	)

	c.escalator.InvalidationFailed(ctx, code, err)
}
