package analytics

import (
	"context"
	"time"

	"github.com/serroba/short-links/internal/messaging"
	"github.com/serroba/short-links/internal/shortener"
	"go.uber.org/zap"
)

// Publishers bundles the typed publish funcs of every topic.
type Publishers struct {
	LinkCreated        messaging.Publish[LinkCreatedEvent]
	LinkAccessed       messaging.Publish[LinkAccessedEvent]
	InvalidationFailed messaging.Publish[InvalidationFailedEvent]
}

// ClickPublisher turns resolutions into LinkAccessedEvents.
// Its Publish method is used as a shortener.ClickFunc.
type ClickPublisher struct {
	publish messaging.Publish[LinkAccessedEvent]
}

func NewClickPublisher(publish messaging.Publish[LinkAccessedEvent]) *ClickPublisher {
	return &ClickPublisher{publish: publish}
}

func (p *ClickPublisher) Publish(ctx context.Context, code shortener.Code, at time.Time) error {
	meta := RequestMetaFromContext(ctx)

	return p.publish(ctx, &LinkAccessedEvent{
		Code:       string(code),
		AccessedAt: at,
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	})
}

// InvalidationPublisher hands failed cache purges to the consumer for retry.
type InvalidationPublisher struct {
	publish messaging.Publish[InvalidationFailedEvent]
	logger  *zap.Logger
}

func NewInvalidationPublisher(publish messaging.Publish[InvalidationFailedEvent], logger *zap.Logger) *InvalidationPublisher {
	return &InvalidationPublisher{publish: publish, logger: logger}
}

func (p *InvalidationPublisher) InvalidationFailed(ctx context.Context, code shortener.Code, cause error) {
	event := &InvalidationFailedEvent{
		Code:     string(code),
		Cause:    cause.Error(),
		FailedAt: time.Now(),
	}

	if err := p.publish(ctx, event); err != nil {
		p.logger.Error("failed to publish invalidation retry",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}
}

// CreatedEvent builds the LinkCreatedEvent for link using request metadata from ctx.
func CreatedEvent(ctx context.Context, link *shortener.Link) *LinkCreatedEvent {
	meta := RequestMetaFromContext(ctx)

	return &LinkCreatedEvent{
		Code:        string(link.Code),
		OriginalURL: link.OriginalURL,
		URLHash:     string(link.URLHash),
		CustomAlias: link.CustomAlias != "",
		Owner:       string(link.Owner),
		CreatedAt:   link.CreatedAt,
		ExpiresAt:   link.ExpiresAt,
		ClientIP:    meta.ClientIP,
		UserAgent:   meta.UserAgent,
	}
}

var _ shortener.Escalator = (*InvalidationPublisher)(nil)
