// Package memory is an in-process export target used in tests and when
// no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"walletmate/internal/core"
	"walletmate/internal/export"
)

type row struct {
	detail   core.TransactionDetail
	currency string
}

type Store struct {
	mu   sync.Mutex
	rows map[string]row
	seq  int
}

var (
	_ export.TransactionWriter  = (*Store)(nil)
	_ export.TransactionRemover = (*Store)(nil)
)

func New() *Store {
	return &Store{rows: make(map[string]row)}
}

func (s *Store) Append(_ context.Context, d core.TransactionDetail, currency string) (string, error) {
	if err := d.Transaction.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[d.Transaction.ID] = row{detail: d, currency: currency}
	s.seq++
	return fmt.Sprintf("mem:%d", s.seq), nil
}

func (s *Store) Remove(_ context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, transactionID)
	return nil
}

// Get returns the exported row for a transaction id, for assertions.
func (s *Store) Get(transactionID string) (core.TransactionDetail, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[transactionID]
	return r.detail, r.currency, ok
}

// Len reports how many rows are currently exported.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
