package shortener

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SweeperConfig tunes the Sweeper.
type SweeperConfig struct {
	Interval time.Duration
	// UnusedAfter deactivates links not resolved within this window. Zero disables it.
	UnusedAfter time.Duration
	CallTimeout time.Duration
	Clock       Clock
}

// SweepResult counts the links deactivated by one sweep.
type SweepResult struct {
	Expired int
	Unused  int
}

// Sweeper periodically deactivates expired and unused links and purges them from the cache.
type Sweeper struct {
	repo        Repository
	cache       Cache
	interval    time.Duration
	unusedAfter time.Duration
	callTimeout time.Duration
	now         Clock
	logger      *zap.Logger
	cancel      context.CancelFunc
	done        chan struct{}
}

func NewSweeper(repo Repository, cache Cache, cfg SweeperConfig, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		repo:        repo,
		cache:       cache,
		interval:    cfg.Interval,
		unusedAfter: cfg.UnusedAfter,
		callTimeout: positiveOr(cfg.CallTimeout, DefaultCallTimeout),
		now:         cfg.Clock.orDefault(),
		logger:      logger,
		done:        make(chan struct{}),
	}
}

// SweepOnce runs a single pass.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	now := s.now()

	var expired []Code

	err := call(ctx, s.callTimeout, func(ctx context.Context) error {
		var err error
		expired, err = s.repo.DeactivateExpired(ctx, now)

		return err
	})
	if err != nil {
		return result, err
	}

	s.purge(ctx, expired)
	result.Expired = len(expired)

	if s.unusedAfter > 0 {
		var unused []Code

		err := call(ctx, s.callTimeout, func(ctx context.Context) error {
			var err error
			unused, err = s.repo.DeactivateUnused(ctx, now.Add(-s.unusedAfter))

			return err
		})
		if err != nil {
			return result, err
		}

		s.purge(ctx, unused)
		result.Unused = len(unused)
	}

	return result, nil
}

func (s *Sweeper) purge(ctx context.Context, codes []Code) {
	for _, code := range codes {
		err := call(ctx, s.callTimeout, func(ctx context.Context) error {
			return s.cache.Delete(ctx, code)
		})
		if err != nil {
			s.logger.Error("cache purge after sweep failed",
				zap.String("code", string(code)),
				zap.Error(err),
			)
		}
	}
}

// Start runs SweepOnce every interval until Shutdown. A non-positive interval disables the loop.
func (s *Sweeper) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}

	ctx, s.cancel = context.WithCancel(ctx)

	go s.loop(ctx)

	return nil
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := s.SweepOnce(ctx)
			if err != nil {
				s.logger.Error("sweep failed", zap.Error(err))

				continue
			}

			if result.Expired+result.Unused > 0 {
				s.logger.Info("sweep deactivated links",
					zap.Int("expired", result.Expired),
					zap.Int("unused", result.Unused),
				)
			}
		}
	}
}

// Shutdown stops the loop and waits for a running sweep to finish.
func (s *Sweeper) Shutdown() error {
	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done

	return nil
}
