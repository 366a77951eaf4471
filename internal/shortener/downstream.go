package shortener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// DefaultCallTimeout bounds a single store or cache call when none is configured.
const DefaultCallTimeout = 2 * time.Second

// Clock returns the current time.
type Clock func() time.Time

func (c Clock) orDefault() Clock {
	if c == nil {
		return time.Now
	}

	return c
}

// classify maps a raw downstream failure to ErrTimeout or ErrConnection.
// Domain errors returned by stores and caches pass through unchanged.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrCodeConflict),
		errors.Is(err, ErrCacheMiss),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrConnection),
		errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %w", ErrConnection, err)
}

// call runs fn under a bounded context and classifies its error.
func call(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return classify(fn(ctx))
}

// detached returns a context that survives cancellation of ctx and expires after timeout.
func detached(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

func positiveOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}

	return d
}
