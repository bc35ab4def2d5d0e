// Package worker consumes transaction change events and mirrors the
// affected rows to the configured export target.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"walletmate/internal/amqp"
	"walletmate/internal/core"
	"walletmate/internal/export"
	"walletmate/internal/storage"
)

type (
	// RecordGetter fetches the current state of one transaction.
	RecordGetter interface {
		GetTransaction(ctx context.Context, id string) (core.TransactionDetail, error)
	}

	// CurrencyProvider returns the display currency to label exported
	// amounts with.
	CurrencyProvider interface {
		Currency(ctx context.Context) (string, error)
	}

	// ExportWorker handles one event at a time. Events carry only the id;
	// the worker re-reads the row, so stale or duplicated deliveries
	// converge on the current state.
	ExportWorker struct {
		records  RecordGetter
		currency CurrencyProvider
		writer   export.TransactionWriter
		remover  export.TransactionRemover
	}
)

func NewExportWorker(records RecordGetter, currency CurrencyProvider, writer export.TransactionWriter, remover export.TransactionRemover) *ExportWorker {
	return &ExportWorker{
		records:  records,
		currency: currency,
		writer:   writer,
		remover:  remover,
	}
}

// HandleEvent processes a single transaction event. Returning an error
// requeues the delivery.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"transaction_id", msg.ID,
		"action", msg.Action,
		"version", msg.Version)

	if msg.Action == amqp.ActionDeleted {
		if err := w.remover.Remove(ctx, msg.ID); err != nil {
			return fmt.Errorf("remove exported row: %w", err)
		}
		return nil
	}

	detail, err := w.records.GetTransaction(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted after the event was published; converge by removing
		// whatever the sheet still holds.
		slog.InfoContext(ctx, "Transaction gone before export, removing row",
			"transaction_id", msg.ID)
		if err := w.remover.Remove(ctx, msg.ID); err != nil {
			return fmt.Errorf("remove exported row: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	currency := core.DefaultCurrency
	if w.currency != nil {
		currency, err = w.currency.Currency(ctx)
		if err != nil {
			return fmt.Errorf("read currency: %w", err)
		}
	}

	// Updates re-export the whole row: drop the old one first so the
	// sheet never holds two rows for one id.
	if msg.Action == amqp.ActionUpdated {
		if err := w.remover.Remove(ctx, msg.ID); err != nil {
			return fmt.Errorf("remove outdated row: %w", err)
		}
	}

	ref, err := w.writer.Append(ctx, detail, currency)
	if err != nil {
		return fmt.Errorf("append to export target: %w", err)
	}

	slog.InfoContext(ctx, "Transaction event processed",
		"transaction_id", msg.ID,
		"action", msg.Action,
		"sheet_ref", ref)
	return nil
}
