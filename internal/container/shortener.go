package container

import (
	"context"
	"fmt"

	"github.com/samber/do"
	"github.com/serroba/short-links/internal/analytics"
	"github.com/serroba/short-links/internal/auth"
	"github.com/serroba/short-links/internal/filter"
	"github.com/serroba/short-links/internal/shortener"
	"go.uber.org/zap"
)

// ShortenerPackage wires the generator, coordinator, resolver, click recorder and sweeper.
func ShortenerPackage(injector *do.Injector) {
	do.Provide(injector, newGenerator)

	do.Provide(injector, func(i *do.Injector) (*shortener.AsyncClickRecorder, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		apply, err := clickFunc(i, options)
		if err != nil {
			return nil, err
		}

		return shortener.NewAsyncClickRecorder(apply, options.MaxInFlightClicks, options.CallTimeout(), logger), nil
	})

	do.Provide(injector, func(i *do.Injector) (shortener.Escalator, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		escalator := shortener.Escalators{shortener.NewLogEscalator(logger)}

		if options.Events {
			publishers := do.MustInvoke[*analytics.Publishers](i)
			escalator = append(escalator, analytics.NewInvalidationPublisher(publishers.InvalidationFailed, logger))
		}

		return escalator, nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Coordinator, error) {
		options := do.MustInvoke[*Options](i)

		return shortener.NewCoordinator(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[shortener.Cache](i),
			do.MustInvoke[*shortener.Generator](i),
			auth.OwnerPolicy{},
			do.MustInvoke[shortener.Escalator](i),
			shortener.CoordinatorConfig{
				DefaultExpiry: options.DefaultExpiry(),
				CallTimeout:   options.CallTimeout(),
			},
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Resolver, error) {
		options := do.MustInvoke[*Options](i)

		return shortener.NewResolver(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[shortener.Cache](i),
			do.MustInvoke[*shortener.AsyncClickRecorder](i),
			shortener.ResolverConfig{
				CacheTTL:    options.CacheTTL(),
				CallTimeout: options.CallTimeout(),
			},
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Sweeper, error) {
		options := do.MustInvoke[*Options](i)

		return shortener.NewSweeper(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[shortener.Cache](i),
			shortener.SweeperConfig{
				Interval:    options.SweepInterval(),
				UnusedAfter: options.UnusedAfter(),
				CallTimeout: options.CallTimeout(),
			},
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

func newGenerator(i *do.Injector) (*shortener.Generator, error) {
	options := do.MustInvoke[*Options](i)
	logger := do.MustInvoke[*zap.Logger](i)

	var (
		next shortener.CodeGenerator
		err  error
	)

	switch options.CodeStrategy {
	case "random":
		next, err = shortener.RandomCodes(options.CodeLength)
	case "snowflake":
		next, err = shortener.SnowflakeCodes(int64(options.NodeID))
	default:
		err = fmt.Errorf("unknown code strategy %q", options.CodeStrategy)
	}

	if err != nil {
		return nil, err
	}

	var seen shortener.SeenFilter

	if options.BloomCapacity > 0 {
		codes := filter.NewCodeFilter(uint(options.BloomCapacity), filter.DefaultFalsePositiveRate)

		loaded, err := codes.Warm(context.Background(), do.MustInvoke[shortener.Repository](i))
		if err != nil {
			return nil, fmt.Errorf("failed to warm code filter: %w", err)
		}

		logger.Info("code filter warmed",
			zap.Int("codes", loaded),
			zap.Uint32("approximateSize", codes.ApproximateSize()),
		)

		seen = codes
	}

	return shortener.NewGenerator(next, seen, shortener.DefaultMaxAttempts, logger), nil
}

// clickFunc selects where clicks go: straight to the store, or onto the click stream.
func clickFunc(i *do.Injector, options *Options) (shortener.ClickFunc, error) {
	switch options.ClickMode {
	case "async":
		return do.MustInvoke[shortener.Repository](i).IncrementClicks, nil
	case "stream":
		if !options.Events {
			return nil, fmt.Errorf("click mode %q requires events", options.ClickMode)
		}

		publishers := do.MustInvoke[*analytics.Publishers](i)

		return analytics.NewClickPublisher(publishers.LinkAccessed).Publish, nil
	default:
		return nil, fmt.Errorf("unknown click mode %q", options.ClickMode)
	}
}
