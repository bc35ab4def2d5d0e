package worker

import (
	"context"
	"testing"
	"time"

	"walletmate/internal/amqp"
	"walletmate/internal/core"
	"walletmate/internal/export/memory"
	"walletmate/internal/storage"
)

type fakeRecords struct {
	byID map[string]core.TransactionDetail
}

func (f *fakeRecords) GetTransaction(ctx context.Context, id string) (core.TransactionDetail, error) {
	d, ok := f.byID[id]
	if !ok {
		return core.TransactionDetail{}, storage.ErrNotFound
	}
	return d, nil
}

type fakeCurrency struct{ code string }

func (f *fakeCurrency) Currency(ctx context.Context) (string, error) { return f.code, nil }

func testDetail(id string, cents int64) core.TransactionDetail {
	return core.TransactionDetail{
		Transaction: core.Transaction{
			ID:         id,
			Title:      "Test " + id,
			Amount:     core.Money{Cents: cents},
			Kind:       core.Expense,
			OccurredAt: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestHandleEventCreatedExportsRow(t *testing.T) {
	target := memory.New()
	records := &fakeRecords{byID: map[string]core.TransactionDetail{
		"tx-1": testDetail("tx-1", 1250),
	}}
	w := NewExportWorker(records, &fakeCurrency{code: "USD"}, target, target)

	msg := amqp.NewTransactionEventMessage("tx-1", amqp.ActionCreated, 1)
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	exported, currency, ok := target.Get("tx-1")
	if !ok {
		t.Fatal("row not exported")
	}
	if exported.Transaction.Amount.Cents != 1250 || currency != "USD" {
		t.Errorf("unexpected export %+v currency=%q", exported.Transaction, currency)
	}
}

func TestHandleEventUpdatedReplacesRow(t *testing.T) {
	target := memory.New()
	records := &fakeRecords{byID: map[string]core.TransactionDetail{
		"tx-1": testDetail("tx-1", 1250),
	}}
	w := NewExportWorker(records, &fakeCurrency{code: "EUR"}, target, target)

	ctx := context.Background()
	if err := w.HandleEvent(ctx, amqp.NewTransactionEventMessage("tx-1", amqp.ActionCreated, 1)); err != nil {
		t.Fatalf("create: %v", err)
	}

	records.byID["tx-1"] = testDetail("tx-1", 9900)
	if err := w.HandleEvent(ctx, amqp.NewTransactionEventMessage("tx-1", amqp.ActionUpdated, 2)); err != nil {
		t.Fatalf("update: %v", err)
	}

	if target.Len() != 1 {
		t.Fatalf("expected 1 row after update, got %d", target.Len())
	}
	exported, _, _ := target.Get("tx-1")
	if exported.Transaction.Amount.Cents != 9900 {
		t.Errorf("row not replaced, amount %d", exported.Transaction.Amount.Cents)
	}
}

func TestHandleEventDeletedRemovesRow(t *testing.T) {
	target := memory.New()
	records := &fakeRecords{byID: map[string]core.TransactionDetail{
		"tx-1": testDetail("tx-1", 1250),
	}}
	w := NewExportWorker(records, &fakeCurrency{code: "EUR"}, target, target)

	ctx := context.Background()
	if err := w.HandleEvent(ctx, amqp.NewTransactionEventMessage("tx-1", amqp.ActionCreated, 1)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := w.HandleEvent(ctx, amqp.NewTransactionEventMessage("tx-1", amqp.ActionDeleted, 2)); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if target.Len() != 0 {
		t.Errorf("expected empty target, got %d rows", target.Len())
	}
}

func TestHandleEventMissingRecordConverges(t *testing.T) {
	target := memory.New()
	w := NewExportWorker(&fakeRecords{byID: map[string]core.TransactionDetail{}}, &fakeCurrency{code: "EUR"}, target, target)

	// A create event for a record already gone must not requeue forever.
	msg := amqp.NewTransactionEventMessage("tx-gone", amqp.ActionCreated, 1)
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("expected convergence, got %v", err)
	}
	if target.Len() != 0 {
		t.Errorf("expected no rows, got %d", target.Len())
	}
}

func TestHandleEventNilCurrencyFallsBack(t *testing.T) {
	target := memory.New()
	records := &fakeRecords{byID: map[string]core.TransactionDetail{
		"tx-1": testDetail("tx-1", 100),
	}}
	w := NewExportWorker(records, nil, target, target)

	if err := w.HandleEvent(context.Background(), amqp.NewTransactionEventMessage("tx-1", amqp.ActionCreated, 1)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	_, currency, _ := target.Get("tx-1")
	if currency != core.DefaultCurrency {
		t.Errorf("expected default currency, got %q", currency)
	}
}
