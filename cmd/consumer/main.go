package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/serroba/short-links/internal/container"
	"github.com/serroba/short-links/internal/messaging"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// loadOptions reads ./configs/consumer.yaml if present, then SERVICE_* environment variables.
func loadOptions() (*container.Options, error) {
	v := viper.New()
	v.AddConfigPath("./configs")
	v.SetConfigName("consumer")
	v.SetConfigType("yaml")

	if err := container.BindViper(v, "SERVICE"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var opts container.Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, err
	}

	return &opts, nil
}

func main() {
	_ = godotenv.Load()

	opts, err := loadOptions()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.DatabasePackage(injector)
	container.RepositoryPackage(injector)
	container.CachePackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)
	group := do.MustInvoke[*messaging.ConsumerGroup](injector)

	ctx, cancel := context.WithCancel(context.Background())

	if err := group.Start(ctx); err != nil {
		logger.Fatal("failed to start consumer group", zap.Error(err))
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	cancel()

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
