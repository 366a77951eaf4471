package analytics

import "time"

const (
	TopicLinkCreated        = "link.created"
	TopicLinkAccessed       = "link.accessed"
	TopicInvalidationFailed = "link.invalidation_failed"
)

// LinkCreatedEvent is emitted after a link has been stored.
type LinkCreatedEvent struct {
	Code        string     `json:"code"`
	OriginalURL string     `json:"originalUrl"`
	URLHash     string     `json:"urlHash"`
	CustomAlias bool       `json:"customAlias"`
	Owner       string     `json:"owner,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	ClientIP    string     `json:"clientIp"`
	UserAgent   string     `json:"userAgent"`
}

// LinkAccessedEvent is emitted for every successful resolution.
type LinkAccessedEvent struct {
	Code       string    `json:"code"`
	AccessedAt time.Time `json:"accessedAt"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	Referrer   string    `json:"referrer,omitempty"`
}

// InvalidationFailedEvent asks a consumer to retry a cache purge.
type InvalidationFailedEvent struct {
	Code     string    `json:"code"`
	Cause    string    `json:"cause"`
	FailedAt time.Time `json:"failedAt"`
}
