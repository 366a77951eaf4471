package container

import (
	"github.com/samber/do"
	"github.com/serroba/short-links/internal/analytics"
	"github.com/serroba/short-links/internal/messaging"
	"github.com/serroba/short-links/internal/shortener"
	"go.uber.org/zap"
)

// PublisherGroupPackage provides the Redis stream publisher and the typed publish funcs of every topic.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		publisher, err := messaging.NewRedisStreamPublisher(redisClient(i), do.MustInvoke[*zap.Logger](i))
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (*analytics.Publishers, error) {
		publisher := do.MustInvoke[*messaging.PublisherGroup](i).Publisher()

		return &analytics.Publishers{
			LinkCreated:        messaging.NewPublishFunc[analytics.LinkCreatedEvent](publisher, analytics.TopicLinkCreated),
			LinkAccessed:       messaging.NewPublishFunc[analytics.LinkAccessedEvent](publisher, analytics.TopicLinkAccessed),
			InvalidationFailed: messaging.NewPublishFunc[analytics.InvalidationFailedEvent](publisher, analytics.TopicInvalidationFailed),
		}, nil
	})
}

// ConsumerGroupPackage provides the consumers of every topic over one Redis stream subscriber.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := messaging.NewRedisStreamSubscriber(redisClient(i), options.ConsumerGroup, logger)
		if err != nil {
			return nil, err
		}

		repo := do.MustInvoke[shortener.Repository](i)
		cache := do.MustInvoke[shortener.Cache](i)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicLinkAccessed, analytics.ApplyClicks(repo, logger), logger))
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicInvalidationFailed, analytics.RetryInvalidations(cache, logger), logger))
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicLinkCreated, analytics.AuditCreated(logger), logger))

		return group, nil
	})
}
