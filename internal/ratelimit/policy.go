// Package ratelimit enforces per-client request budgets on the link API.
package ratelimit

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Scope categorizes a request for rate limiting purposes.
type Scope string

const (
	// ScopeRead covers redirects and lookups.
	ScopeRead Scope = "read"
	// ScopeWrite covers link creation and mutation.
	ScopeWrite Scope = "write"
)

// MetadataKey is the key used to store rate limit config in operation metadata.
const MetadataKey = "rateLimit"

// EndpointConfig overrides the method-based scope of an operation.
type EndpointConfig struct {
	Scope    Scope
	Disabled bool
}

// LimitConfig allows Max requests per sliding Window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps every scope to the limits a client must stay under.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// NewPolicy builds a policy from per-minute budgets. Writes also get an hourly cap of ten minutes' worth.
// A budget <= 0 leaves the scope unlimited.
func NewPolicy(readsPerMinute, writesPerMinute int64) *Policy {
	limits := make(map[Scope][]LimitConfig, 2)

	if readsPerMinute > 0 {
		limits[ScopeRead] = []LimitConfig{{Window: time.Minute, Max: readsPerMinute}}
	}

	if writesPerMinute > 0 {
		limits[ScopeWrite] = []LimitConfig{
			{Window: time.Minute, Max: writesPerMinute},
			{Window: time.Hour, Max: 10 * writesPerMinute},
		}
	}

	return &Policy{Limits: limits}
}

// ScopeOf returns the scope of an operation, or false when it is exempt.
func ScopeOf(op *huma.Operation, method string) (Scope, bool) {
	if op != nil {
		if cfg, ok := op.Metadata[MetadataKey].(EndpointConfig); ok {
			if cfg.Disabled {
				return "", false
			}

			if cfg.Scope != "" {
				return cfg.Scope, true
			}
		}
	}

	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ScopeRead, true
	default:
		return ScopeWrite, true
	}
}
