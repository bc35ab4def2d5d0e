package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"walletmate/internal/amqp"
	"walletmate/internal/config"
	"walletmate/internal/export"
	exportgoogle "walletmate/internal/export/google"
	exportmemory "walletmate/internal/export/memory"
	"walletmate/internal/log"
	"walletmate/internal/prefs"
	"walletmate/internal/storage"
	"walletmate/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     log.DefaultConfig().Level,
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	logger.Info("Starting walletmate-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
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

	// Without a spreadsheet the worker still drains the queue, mirroring
	// into memory. Useful for local runs and as a dead-letter drain.
	var (
		writer  export.TransactionWriter
		remover export.TransactionRemover
	)
	if cfg.GoogleSpreadsheetID != "" {
		client, err := exportgoogle.NewFromEnv(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer, remover = client, client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		target := exportmemory.New()
		writer, remover = target, target
		logger.Info("No spreadsheet configured, using in-memory export target")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	currency := prefs.NewCurrencyStore(store, cfg.DefaultCurrency)
	exportWorker := worker.NewExportWorker(store, currency, writer, remover)

	logger.Info("Consuming transaction events", "queue", cfg.AMQPQueue)
	if err := amqpClient.ConsumeTransactionEvents(ctx, exportWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
