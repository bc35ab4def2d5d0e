package prefs

import (
	"context"
	"path/filepath"
	"testing"

	"walletmate/internal/storage"
)

func testCurrencyStore(t *testing.T) *CurrencyStore {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "walletmate.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewCurrencyStore(s, "EUR")
}

func TestCurrencyDefaultsWhenUnset(t *testing.T) {
	c := testCurrencyStore(t)
	got, err := c.Currency(context.Background())
	if err != nil {
		t.Fatalf("currency: %v", err)
	}
	if got != "EUR" {
		t.Errorf("expected default EUR, got %q", got)
	}
}

func TestSetCurrencyNormalizes(t *testing.T) {
	c := testCurrencyStore(t)
	ctx := context.Background()

	if err := c.SetCurrency(ctx, " usd "); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.Currency(ctx)
	if err != nil {
		t.Fatalf("currency: %v", err)
	}
	if got != "USD" {
		t.Errorf("expected USD, got %q", got)
	}
}

func TestSetCurrencyRejectsBadCodes(t *testing.T) {
	c := testCurrencyStore(t)
	for _, code := range []string{"", "EU", "EURO", "12", "A1!", "US1"} {
		if err := c.SetCurrency(context.Background(), code); err == nil {
			t.Errorf("expected rejection of %q", code)
		}
	}
}

func TestStreamCurrencyMapsEmptyToDefault(t *testing.T) {
	c := testCurrencyStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := c.StreamCurrency(ctx)
	if got := <-stream; got != "EUR" {
		t.Fatalf("expected default on initial push, got %q", got)
	}

	if err := c.SetCurrency(ctx, "GBP"); err != nil {
		t.Fatalf("set: %v", err)
	}
	for got := range stream {
		if got == "GBP" {
			return
		}
	}
	t.Fatal("stream ended before the update arrived")
}
