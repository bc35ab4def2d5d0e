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

	"walletmate/internal/amqp"
	"walletmate/internal/config"
	"walletmate/internal/engine"
	apphttp "walletmate/internal/http"
	"walletmate/internal/log"
	"walletmate/internal/period"
	"walletmate/internal/prefs"
	"walletmate/internal/storage"
)

func main() {
	// .env is for local development; absent in containers.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Failed to resolve timezone", log.FieldError, err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open store", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := store.SeedDefaults(ctx); err != nil {
		logger.Error("Failed to seed default categories", log.FieldError, err)
		os.Exit(1)
	}

	// Change events are optional: without a broker the app runs
	// local-only and saves still succeed.
	var publisher apphttp.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP, continuing without events", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	currency := prefs.NewCurrencyStore(store, cfg.DefaultCurrency)
	suggester := engine.NewSuggester(store, store, cfg.SuggestCacheTTL, logger)
	resolver := period.NewResolver(loc, cfg.WeekStart)
	aggregator := engine.NewAggregator(loc)

	suggestCfg := apphttp.SuggestSettings{
		Override: cfg.SuggestOverride,
		Debounce: cfg.SuggestDebounce,
	}
	srv := apphttp.NewServer(":"+cfg.Port, store, currency, suggester, suggestCfg, publisher, resolver, aggregator, logger)
	// No WriteTimeout: the live summary stream stays open for the life
	// of the connection.
	srv.ReadTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting walletmate server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
