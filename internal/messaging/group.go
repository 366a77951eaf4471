package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Runnable represents a component that can be started and shutdown.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup starts a set of Runnables together and stops them in reverse order.
// The transport is closed last, after every member has stopped.
type ConsumerGroup struct {
	members   []Runnable
	transport io.Closer
	logger    *zap.Logger
}

// NewConsumerGroup creates a group. transport may be nil.
func NewConsumerGroup(transport io.Closer, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		transport: transport,
		logger:    logger,
	}
}

// Add registers a member. Members must be added before Start.
func (g *ConsumerGroup) Add(member Runnable) {
	g.members = append(g.members, member)
}

// Len returns the number of registered members.
func (g *ConsumerGroup) Len() int {
	return len(g.members)
}

// Start starts every member; on failure the already started ones are shut down.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, member := range g.members {
		if err := member.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.members[j].Shutdown()
			}

			return fmt.Errorf("failed to start member %d: %w", i, err)
		}
	}

	g.logger.Info("consumer group started", zap.Int("count", g.Len()))

	return nil
}

// Shutdown stops every member and joins their errors.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("shutting down consumer group")

	var errs []error

	for i := len(g.members) - 1; i >= 0; i-- {
		if err := g.members[i].Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	if g.transport != nil {
		if err := g.transport.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
