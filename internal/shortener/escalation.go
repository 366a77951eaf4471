package shortener

import (
	"context"

	"go.uber.org/zap"
)

// LogEscalator records failed invalidations in the log only.
type LogEscalator struct {
	logger *zap.Logger
}

func NewLogEscalator(logger *zap.Logger) *LogEscalator {
	return &LogEscalator{logger: logger}
}

func (e *LogEscalator) InvalidationFailed(_ context.Context, code Code, cause error) {
	e.logger.Error("stale cache entry may be served until its ttl elapses",
		zap.String("code", string(code)),
		zap.Error(cause),
	)
}

// Escalators fans a failed invalidation out to several escalators.
type Escalators []Escalator

func (es Escalators) InvalidationFailed(ctx context.Context, code Code, cause error) {
	for _, e := range es {
		e.InvalidationFailed(ctx, code, cause)
	}
}

var (
	_ Escalator = (*LogEscalator)(nil)
	_ Escalator = Escalators(nil)
)
