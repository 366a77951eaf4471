package shortener

import "errors"

var (
	// ErrNotFound covers absent, expired and inactive links alike.
	ErrNotFound = errors.New("link not found")
	// ErrAliasTaken is returned when a custom alias is held by another active link.
	ErrAliasTaken = errors.New("custom alias already taken")
	// ErrCodeSpaceExhausted is returned when no free code was found within the attempt bound.
	ErrCodeSpaceExhausted = errors.New("code space exhausted")
	// ErrForbidden is returned when the requester may not modify the link.
	ErrForbidden = errors.New("forbidden")
	// ErrTimeout is returned when a downstream call exceeded its deadline.
	ErrTimeout = errors.New("downstream timeout")
	// ErrConnection is returned when a downstream service could not be reached.
	ErrConnection = errors.New("downstream connection error")

	ErrInvalidAlias  = errors.New("invalid custom alias")
	ErrInvalidURL    = errors.New("invalid url")
	ErrInvalidExpiry = errors.New("expiration must be in the future")

	// ErrCodeConflict is returned by a Repository when an active link already holds the code.
	ErrCodeConflict = errors.New("code already in use")
	// ErrCacheMiss is returned by a Cache when no entry exists for the code.
	ErrCacheMiss = errors.New("cache miss")
)

// IsTransient reports whether err is a downstream failure worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrConnection)
}
