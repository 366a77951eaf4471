package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/serroba/short-links/internal/messaging"
	"github.com/serroba/short-links/internal/shortener"
	"go.uber.org/zap"
)

// ApplyClicks increments the counters of the accessed link.
// Clicks on links that are gone are dropped.
func ApplyClicks(repo shortener.Repository, logger *zap.Logger) messaging.Handler[LinkAccessedEvent] {
	return func(ctx context.Context, event *LinkAccessedEvent) error {
		err := repo.IncrementClicks(ctx, shortener.Code(event.Code), event.AccessedAt)
		if errors.Is(err, shortener.ErrNotFound) {
			return fmt.Errorf("click on inactive link %q: %w", event.Code, messaging.ErrPermanent)
		}

		if err != nil {
			return err
		}

		logger.Debug("click applied", zap.String("code", event.Code))

		return nil
	}
}

// RetryInvalidations purges cache entries whose invalidation failed after a mutation.
// Errors nack the message so the purge is retried on redelivery.
func RetryInvalidations(cache shortener.Cache, logger *zap.Logger) messaging.Handler[InvalidationFailedEvent] {
	return func(ctx context.Context, event *InvalidationFailedEvent) error {
		if err := cache.Delete(ctx, shortener.Code(event.Code)); err != nil {
			return err
		}

		logger.Info("stale cache entry purged on retry",
			zap.String("code", event.Code),
			zap.Time("failedAt", event.FailedAt),
		)

		return nil
	}
}

// AuditCreated writes created links to the audit log.
func AuditCreated(logger *zap.Logger) messaging.Handler[LinkCreatedEvent] {
	return func(_ context.Context, event *LinkCreatedEvent) error {
		logger.Info("link created event received",
			zap.String("code", event.Code),
			zap.String("originalUrl", event.OriginalURL),
			zap.Bool("customAlias", event.CustomAlias),
			zap.String("owner", event.Owner),
			zap.Time("createdAt", event.CreatedAt),
			zap.String("clientIp", event.ClientIP),
		)

		return nil
	}
}
