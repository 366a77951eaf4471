package shortener

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/bwmarrin/snowflake"
	"github.com/jaevor/go-nanoid"
	"go.uber.org/zap"
)

const (
	// Base62Alphabet is the alphabet of randomly generated codes.
	Base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	DefaultCodeLength  = 8
	MinCodeLength      = 6
	MaxCodeLength      = 12
	DefaultMaxAttempts = 5

	MinAliasLength = 4
	MaxAliasLength = 32
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// reservedAliases collide with routes served next to the redirect endpoint.
var reservedAliases = map[string]struct{}{
	"admin":   {},
	"api":     {},
	"docs":    {},
	"health":  {},
	"links":   {},
	"openapi": {},
	"schemas": {},
}

// CodeGenerator produces candidate short codes.
type CodeGenerator func() string

// RandomCodes returns a generator of random base62 codes of the given length.
func RandomCodes(length int) (CodeGenerator, error) {
	if length < MinCodeLength || length > MaxCodeLength {
		return nil, fmt.Errorf("code length %d outside [%d, %d]", length, MinCodeLength, MaxCodeLength)
	}

	gen, err := nanoid.CustomASCII(Base62Alphabet, length)
	if err != nil {
		return nil, err
	}

	return CodeGenerator(gen), nil
}

// SnowflakeCodes returns a generator of base58-encoded snowflake IDs for the given node.
// Codes are time-ordered and unique per node, at most 11 characters long.
func SnowflakeCodes(nodeID int64) (CodeGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return func() string {
		return node.Generate().Base58()
	}, nil
}

// ValidateAlias checks a caller-supplied alias and returns it unchanged as a Code.
func ValidateAlias(alias string) (Code, error) {
	if len(alias) < MinAliasLength || len(alias) > MaxAliasLength {
		return "", fmt.Errorf("%w: length must be between %d and %d", ErrInvalidAlias, MinAliasLength, MaxAliasLength)
	}

	if !aliasPattern.MatchString(alias) {
		return "", fmt.Errorf("%w: only letters, digits, '-' and '_' are allowed", ErrInvalidAlias)
	}

	if _, ok := reservedAliases[alias]; ok {
		return "", fmt.Errorf("%w: %q is reserved", ErrInvalidAlias, alias)
	}

	return Code(alias), nil
}

// Generator allocates unique codes with a bounded number of attempts.
type Generator struct {
	next        CodeGenerator
	seen        SeenFilter
	maxAttempts int
	logger      *zap.Logger
}

// NewGenerator creates a generator. seen may be nil; maxAttempts <= 0 uses DefaultMaxAttempts.
func NewGenerator(next CodeGenerator, seen SeenFilter, maxAttempts int, logger *zap.Logger) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Generator{
		next:        next,
		seen:        seen,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Generate returns a single candidate code.
func (g *Generator) Generate() Code {
	return Code(g.next())
}

// Allocate draws candidates and hands each to claim until one is accepted.
// claim returning ErrCodeConflict moves on to the next candidate; any other error aborts.
// Returns ErrCodeSpaceExhausted once every attempt collided.
func (g *Generator) Allocate(ctx context.Context, claim func(ctx context.Context, code Code) error) (Code, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code := g.Generate()

		if g.seen != nil && g.seen.Test(string(code)) {
			g.logger.Debug("skipping candidate seen before",
				zap.String("code", string(code)),
				zap.Int("attempt", attempt),
			)

			continue
		}

		err := claim(ctx, code)
		if err == nil {
			if g.seen != nil {
				g.seen.Add(string(code))
			}

			return code, nil
		}

		if !errors.Is(err, ErrCodeConflict) {
			return "", err
		}

		g.logger.Warn("short code collision",
			zap.String("code", string(code)),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", g.maxAttempts),
		)
	}

	return "", fmt.Errorf("%w after %d attempts", ErrCodeSpaceExhausted, g.maxAttempts)
}
