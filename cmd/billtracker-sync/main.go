package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"billtracker/internal/backend"
	"billtracker/internal/config"
	"billtracker/internal/core"
	"billtracker/internal/log"
	"billtracker/internal/services"
	"billtracker/internal/storage"
)

// billtracker-sync periodically republishes every user's durable ledger to
// the feed so subscribers that missed deliveries converge on the current
// snapshot.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     log.DefaultConfig().Level,
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	logger.Info("Starting billtracker-sync", log.FieldOperation, log.OpStartup)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	factory := backend.NewFactory(logger.Logger)
	feedResult, err := factory.Create(backend.Config{
		Type:         backend.Type(cfg.FeedBackend),
		AMQPURL:      cfg.AMQPURL,
		AMQPExchange: cfg.AMQPExchange,
		KafkaBrokers: cfg.KafkaBrokers,
		KafkaTopic:   cfg.KafkaTopic,
		KafkaGroup:   cfg.KafkaGroup,
	})
	if err != nil {
		logger.Error("Failed to initialize feed backend", log.FieldError, err, log.FieldFeedBackend, cfg.FeedBackend)
		os.Exit(1)
	}
	if feedResult.Cleanup != nil {
		defer func() {
			if err := feedResult.Cleanup(); err != nil {
				logger.Error("Feed backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	billService := services.NewBillService(repo, feedResult.Publisher, nil,
		core.Validator{RequireTitle: cfg.RequireTitle})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	republishAll := func(ctx context.Context) {
		users, err := repo.ListUsers(ctx)
		if err != nil {
			logger.Error("Failed to list users", log.FieldError, err)
			return
		}
		for _, userID := range users {
			if err := billService.Republish(ctx, userID); err != nil {
				logger.Error("Republish failed", log.FieldError, err, log.FieldUserID, userID)
				continue
			}
			logger.Debug("Republished ledger", log.FieldUserID, userID, log.FieldOperation, log.OpPublish)
		}
		logger.Info("Republish cycle complete", "users", len(users))
	}

	// Push current state once at startup before settling into the interval.
	republishAll(ctx)

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				republishAll(ctx)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

	cancel()
	logger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}
