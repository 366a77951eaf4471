package shortener

import "time"

// Code represents a short code.
type Code string

// URLHash represents a hash of a normalized URL.
type URLHash string

// OwnerID identifies the user that owns a link. Empty for anonymous links.
type OwnerID string

// Link is a shortened URL and its usage metadata.
type Link struct {
	Code        Code
	OriginalURL string
	URLHash     URLHash
	CustomAlias string // equal to Code when the caller chose the code
	Owner       OwnerID
	CreatedAt   time.Time
	LastUsedAt  *time.Time
	ExpiresAt   *time.Time
	Clicks      int64
	Active      bool
}

// Expired reports whether the link's expiry has passed at now.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

// Resolvable reports whether the link may be served at now.
func (l *Link) Resolvable(now time.Time) bool {
	return l.Active && !l.Expired(now)
}

// Stats returns the usage view of the link.
func (l *Link) Stats() *LinkStats {
	return &LinkStats{
		Code:        l.Code,
		OriginalURL: l.OriginalURL,
		Clicks:      l.Clicks,
		CreatedAt:   l.CreatedAt,
		LastUsedAt:  l.LastUsedAt,
		ExpiresAt:   l.ExpiresAt,
	}
}

// LinkStats holds the counters of a link as read from the durable store.
type LinkStats struct {
	Code        Code
	OriginalURL string
	Clicks      int64
	CreatedAt   time.Time
	LastUsedAt  *time.Time
	ExpiresAt   *time.Time
}

// LinkUpdate lists the mutable fields of a link. Nil fields are left unchanged.
type LinkUpdate struct {
	OriginalURL *string
	URLHash     URLHash // set by the coordinator alongside OriginalURL
	ExpiresAt   *time.Time
}

// CreateRequest is the input for creating a link.
type CreateRequest struct {
	OriginalURL string
	CustomAlias string
	ExpiresAt   *time.Time
	Owner       OwnerID
}

// CachedLink is the minimal redirect payload kept in the resolution cache.
type CachedLink struct {
	OriginalURL string
	ExpiresAt   *time.Time
}
