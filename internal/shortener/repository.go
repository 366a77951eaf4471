package shortener

import (
	"context"
	"time"
)

// Repository is the durable, authoritative link store. Every method is row-atomic.
type Repository interface {
	// Insert stores a new link. Returns ErrCodeConflict if an active link holds the code.
	Insert(ctx context.Context, link *Link) error

	// GetByCode returns the active link for code, or the most recent inactive one.
	// Returns ErrNotFound if the code was never used.
	GetByCode(ctx context.Context, code Code) (*Link, error)

	// FindByURLHash returns all active links whose normalized URL hashes to hash.
	FindByURLHash(ctx context.Context, hash URLHash) ([]*Link, error)

	// Update applies the non-nil fields of update to the active link for code.
	// Returns ErrNotFound if no active link holds the code.
	Update(ctx context.Context, code Code, update LinkUpdate) (*Link, error)

	// SoftDelete marks the active link for code inactive and reports whether a row changed.
	SoftDelete(ctx context.Context, code Code) (bool, error)

	// IncrementClicks adds one click to the active link for code and sets its last use.
	IncrementClicks(ctx context.Context, code Code, at time.Time) error

	// ListCodes returns the codes of all active links.
	ListCodes(ctx context.Context) ([]Code, error)

	// DeactivateExpired marks active links expired at now inactive and returns their codes.
	DeactivateExpired(ctx context.Context, now time.Time) ([]Code, error)

	// DeactivateUnused marks active links last used before cutoff inactive and returns their codes.
	DeactivateUnused(ctx context.Context, cutoff time.Time) ([]Code, error)
}

// Cache is a disposable lookup layer in front of the Repository.
// Implementations may fail; failures never decide the outcome of a resolution.
type Cache interface {
	// Get returns ErrCacheMiss when no entry exists.
	Get(ctx context.Context, code Code) (*CachedLink, error)
	Set(ctx context.Context, code Code, link *CachedLink, ttl time.Duration) error
	Delete(ctx context.Context, code Code) error
}

// ClickRecorder applies a successful resolution to the link's counters.
// RecordClick must not block the caller and must outlive the caller's context.
type ClickRecorder interface {
	RecordClick(ctx context.Context, code Code, at time.Time)
}

// Authorizer decides whether requester may modify link.
// It returns ErrForbidden (or an error wrapping it) to reject.
type Authorizer interface {
	Authorize(ctx context.Context, requester OwnerID, link *Link) error
}

// Escalator receives cache invalidations that failed after a committed mutation.
type Escalator interface {
	InvalidationFailed(ctx context.Context, code Code, cause error)
}

// SeenFilter is a probabilistic set of codes already handed out.
type SeenFilter interface {
	Add(code string)
	Test(code string) bool
}
