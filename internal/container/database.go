package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do"
	"github.com/serroba/short-links/internal/shortener"
	"github.com/serroba/short-links/internal/store"
	"go.uber.org/zap"
)

// Database is a link store that can be migrated, pinged and closed.
type Database interface {
	shortener.Repository
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// memoryDatabase keeps links in process; it has nothing to migrate or close.
type memoryDatabase struct {
	*store.MemoryStore
}

func (memoryDatabase) Migrate(context.Context) error { return nil }
func (memoryDatabase) Ping(context.Context) error    { return nil }
func (memoryDatabase) Close() error                  { return nil }

// DatabasePackage opens the link store selected by StoreDriver.
func DatabasePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (Owned[Database], error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		db, err := openDatabase(options, logger)
		if err != nil {
			return Owned[Database]{}, err
		}

		logger.Info("link store ready", zap.String("driver", options.StoreDriver))

		return Owned[Database]{Value: db}, nil
	})
}

func openDatabase(options *Options, logger *zap.Logger) (Database, error) {
	switch options.StoreDriver {
	case "postgres":
		pool, err := pgxpool.New(context.Background(), options.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}

		return store.NewPostgresStore(pool), nil
	case "sqlite", "mysql":
		db, err := store.OpenGorm(options.StoreDriver, options.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}

		return store.NewGormStore(db), nil
	case "memory":
		return memoryDatabase{MemoryStore: store.NewMemoryStore()}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", options.StoreDriver)
	}
}

// RepositoryPackage exposes the opened database as the durable link store.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.Repository, error) {
		return do.MustInvoke[Owned[Database]](i).Value, nil
	})
}
