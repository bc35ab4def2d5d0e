// Package export defines the outbound ports for mirroring transactions
// to an external spreadsheet.
package export

import (
	"context"

	"walletmate/internal/core"
)

type (
	// TransactionWriter appends one transaction row to the export target
	// and returns an opaque row reference.
	TransactionWriter interface {
		Append(ctx context.Context, d core.TransactionDetail, currency string) (rowRef string, err error)
	}

	// TransactionRemover deletes the exported row for a transaction id.
	// Removing an id that was never exported is not an error.
	TransactionRemover interface {
		Remove(ctx context.Context, transactionID string) error
	}
)
