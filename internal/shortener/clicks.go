package shortener

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxInFlightClicks bounds concurrent click writes of an AsyncClickRecorder.
const DefaultMaxInFlightClicks = 256

// ClickFunc applies one click, typically Repository.IncrementClicks or an event publisher.
type ClickFunc func(ctx context.Context, code Code, at time.Time) error

// AsyncClickRecorder applies clicks in background goroutines.
// When maxInFlight clicks are pending, further clicks are dropped and logged.
type AsyncClickRecorder struct {
	apply   ClickFunc
	timeout time.Duration
	slots   chan struct{}
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncClickRecorder creates a recorder. maxInFlight <= 0 uses DefaultMaxInFlightClicks.
func NewAsyncClickRecorder(apply ClickFunc, maxInFlight int, timeout time.Duration, logger *zap.Logger) *AsyncClickRecorder {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlightClicks
	}

	return &AsyncClickRecorder{
		apply:   apply,
		timeout: positiveOr(timeout, DefaultCallTimeout),
		slots:   make(chan struct{}, maxInFlight),
		logger:  logger,
	}
}

// RecordClick schedules a click increment and returns immediately.
func (r *AsyncClickRecorder) RecordClick(ctx context.Context, code Code, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.logger.Warn("click dropped after shutdown", zap.String("code", string(code)))

		return
	}

	select {
	case r.slots <- struct{}{}:
	default:
		r.logger.Warn("click dropped, recorder saturated",
			zap.String("code", string(code)),
			zap.Int("maxInFlight", cap(r.slots)),
		)

		return
	}

	r.wg.Add(1)

	go r.run(ctx, code, at)
}

func (r *AsyncClickRecorder) run(ctx context.Context, code Code, at time.Time) {
	defer r.wg.Done()
	defer func() { <-r.slots }()

	ctx, cancel := detached(ctx, r.timeout)
	defer cancel()

	if err := r.apply(ctx, code, at); err != nil {
		r.logger.Warn("failed to record click",
			zap.String("code", string(code)),
			zap.Error(classify(err)),
		)
	}
}

// Flush blocks until every scheduled click has been applied.
func (r *AsyncClickRecorder) Flush() {
	r.wg.Wait()
}

// Shutdown stops accepting clicks and waits for pending ones.
func (r *AsyncClickRecorder) Shutdown() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()

	return nil
}

var _ ClickRecorder = (*AsyncClickRecorder)(nil)
