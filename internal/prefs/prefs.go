// Package prefs exposes the user's display preferences. The only one
// today is the currency code attached to aggregated sums; it labels,
// never converts.
package prefs

import (
	"context"
	"fmt"
	"strings"

	"walletmate/internal/storage"
)

const currencyKey = "currency"

// CurrencyStore reads and writes the display currency, falling back to a
// configured default when the user never picked one.
type CurrencyStore struct {
	store           *storage.Store
	defaultCurrency string
}

func NewCurrencyStore(store *storage.Store, defaultCurrency string) *CurrencyStore {
	if defaultCurrency == "" {
		defaultCurrency = "EUR"
	}
	return &CurrencyStore{store: store, defaultCurrency: defaultCurrency}
}

func (c *CurrencyStore) Currency(ctx context.Context) (string, error) {
	value, ok, err := c.store.GetPref(ctx, currencyKey)
	if err != nil {
		return "", fmt.Errorf("read currency: %w", err)
	}
	if !ok || value == "" {
		return c.defaultCurrency, nil
	}
	return value, nil
}

func (c *CurrencyStore) SetCurrency(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return fmt.Errorf("invalid currency code %q", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("invalid currency code %q", code)
		}
	}
	if err := c.store.SetPref(ctx, currencyKey, code); err != nil {
		return fmt.Errorf("save currency: %w", err)
	}
	return nil
}

// StreamCurrency pushes the effective currency immediately and after
// every preference change.
func (c *CurrencyStore) StreamCurrency(ctx context.Context) <-chan string {
	raw := c.store.StreamPref(ctx, currencyKey)
	out := make(chan string)
	go func() {
		defer close(out)
		for value := range raw {
			if value == "" {
				value = c.defaultCurrency
			}
			select {
			case out <- value:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
