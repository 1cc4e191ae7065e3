package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"billtracker/internal/backend"
	"billtracker/internal/blob"
	"billtracker/internal/config"
	"billtracker/internal/core"
	"billtracker/internal/export"
	expgoogle "billtracker/internal/export/google"
	apphttp "billtracker/internal/http"
	"billtracker/internal/ledger"
	"billtracker/internal/log"
	"billtracker/internal/services"
	"billtracker/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting billtracker", log.FieldOperation, log.OpStartup)

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

	blobs, err := blob.NewDiskStore(cfg.BlobDir)
	if err != nil {
		logger.Error("Failed to initialize attachment store", log.FieldError, err, "dir", cfg.BlobDir)
		os.Exit(1)
	}

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

	billService := services.NewBillService(repo, feedResult.Publisher, blobs,
		core.Validator{RequireTitle: cfg.RequireTitle})

	store := ledger.NewStore(feedResult.Source, logger.Logger)
	defer store.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.LedgerUser != "" {
		if err := store.Start(ctx, cfg.LedgerUser); err != nil {
			logger.Error("Failed to start ledger session", log.FieldError, err, log.FieldUserID, cfg.LedgerUser)
			os.Exit(1)
		}
		// Seed the feed with durable state so the first snapshot is not empty.
		if err := billService.Republish(ctx, cfg.LedgerUser); err != nil {
			logger.Warn("Initial republish failed", log.FieldError, err, log.FieldUserID, cfg.LedgerUser)
		}
		logger.Info("Ledger session started", log.FieldUserID, cfg.LedgerUser)
	} else {
		logger.Warn("No LEDGER_USER configured; ledger stays empty until a session starts")
	}

	var sink export.Sink
	if os.Getenv("GOOGLE_SPREADSHEET_ID") != "" {
		gs, err := expgoogle.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets export sink", log.FieldError, err)
			os.Exit(1)
		}
		sink = gs
		logger.Info("Google Sheets export sink initialized")
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, store, billService, sink, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", "port", cfg.Port, log.FieldFeedBackend, cfg.FeedBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)
		case <-gctx.Done():
			return gctx.Err()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
