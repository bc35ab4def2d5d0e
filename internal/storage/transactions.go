package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"walletmate/internal/core"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

const detailColumns = `
	t.id, t.title, t.amount_cents, t.kind, t.occurred_at, t.category_id, t.attachment_ref, t.last_modified,
	c.id, c.name, c.kind, c.icon, c.color`

const detailFrom = `
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id`

// Newest first; equal timestamps keep insertion order via the implicit rowid.
const detailOrder = ` ORDER BY t.occurred_at DESC, t.rowid ASC`

func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction, tagIDs []string) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO transactions
		 (id, title, amount_cents, kind, occurred_at, category_id, attachment_ref, last_modified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Amount.Cents, string(t.Kind), t.OccurredAt.UnixMilli(),
		nullable(t.CategoryID), nullable(t.AttachmentRef), t.LastModified.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	if err := replaceTagRefs(ctx, tx, t.ID, tagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"title", t.Title,
		"amount_cents", t.Amount.Cents,
		"kind", string(t.Kind))

	s.notifier.broadcast()
	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction, tagIDs []string) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE transactions
		 SET title = ?, amount_cents = ?, kind = ?, occurred_at = ?, category_id = ?, attachment_ref = ?, last_modified = ?
		 WHERE id = ?`,
		t.Title, t.Amount.Cents, string(t.Kind), t.OccurredAt.UnixMilli(),
		nullable(t.CategoryID), nullable(t.AttachmentRef), t.LastModified.UnixMilli(), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("update transaction %s: %w", t.ID, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transaction_tags WHERE transaction_id = ?`, t.ID); err != nil {
		return fmt.Errorf("clear tag refs: %w", err)
	}
	if err := replaceTagRefs(ctx, tx, t.ID, tagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}

	s.notifier.broadcast()
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transaction_tags WHERE transaction_id = ?`, id); err != nil {
		return fmt.Errorf("delete tag refs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	s.notifier.broadcast()
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (core.TransactionDetail, error) {
	details, err := s.queryDetails(ctx, `SELECT`+detailColumns+detailFrom+` WHERE t.id = ?`, id)
	if err != nil {
		return core.TransactionDetail{}, err
	}
	if len(details) == 0 {
		return core.TransactionDetail{}, fmt.Errorf("get transaction %s: %w", id, ErrNotFound)
	}
	return details[0], nil
}

// ListAll returns every transaction joined with category and tags, newest
// first.
func (s *Store) ListAll(ctx context.Context) ([]core.TransactionDetail, error) {
	return s.queryDetails(ctx, `SELECT`+detailColumns+detailFrom+detailOrder)
}

// ListRange returns the transactions whose occurred_at falls inside
// [start, end], both bounds inclusive.
func (s *Store) ListRange(ctx context.Context, start, end time.Time) ([]core.TransactionDetail, error) {
	return s.queryDetails(ctx,
		`SELECT`+detailColumns+detailFrom+` WHERE t.occurred_at BETWEEN ? AND ?`+detailOrder,
		start.UnixMilli(), end.UnixMilli())
}

// ListByTag returns the transactions referencing the given tag.
func (s *Store) ListByTag(ctx context.Context, tagID string) ([]core.TransactionDetail, error) {
	return s.queryDetails(ctx,
		`SELECT`+detailColumns+detailFrom+` WHERE t.id IN (
			SELECT transaction_id FROM transaction_tags WHERE tag_id = ?
		)`+detailOrder, tagID)
}

// ListByTitleSearch returns the transactions whose title contains the
// given text, across all time.
func (s *Store) ListByTitleSearch(ctx context.Context, text string) ([]core.TransactionDetail, error) {
	return s.queryDetails(ctx,
		`SELECT`+detailColumns+detailFrom+` WHERE t.title LIKE '%' || ? || '%'`+detailOrder, text)
}

func (s *Store) queryDetails(ctx context.Context, query string, args ...any) ([]core.TransactionDetail, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var details []core.TransactionDetail
	var ids []string
	for rows.Next() {
		var (
			t          core.Transaction
			occurredAt int64
			modifiedAt int64
			categoryID sql.NullString
			attachment sql.NullString
			cID        sql.NullString
			cName      sql.NullString
			cKind      sql.NullString
			cIcon      sql.NullString
			cColor     sql.NullString
		)
		err := rows.Scan(
			&t.ID, &t.Title, &t.Amount.Cents, &t.Kind, &occurredAt, &categoryID, &attachment, &modifiedAt,
			&cID, &cName, &cKind, &cIcon, &cColor)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.OccurredAt = time.UnixMilli(occurredAt)
		t.LastModified = time.UnixMilli(modifiedAt)
		t.CategoryID = categoryID.String
		t.AttachmentRef = attachment.String

		detail := core.TransactionDetail{Transaction: t}
		if cID.Valid {
			detail.Category = &core.Category{
				ID:    cID.String,
				Name:  cName.String,
				Kind:  core.Kind(cKind.String),
				Icon:  cIcon.String,
				Color: cColor.String,
			}
		}
		details = append(details, detail)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	if err := s.attachTags(ctx, details, ids); err != nil {
		return nil, err
	}
	return details, nil
}

// attachTags fills the Tags slice of each detail with a single pass over
// the cross-ref table.
func (s *Store) attachTags(ctx context.Context, details []core.TransactionDetail, ids []string) error {
	if len(details) == 0 {
		return nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT tt.transaction_id, tg.id, tg.name, tg.color
		 FROM transaction_tags tt
		 JOIN tags tg ON tg.id = tt.tag_id`)
	if err != nil {
		return fmt.Errorf("query tag refs: %w", err)
	}
	defer rows.Close()

	byTransaction := make(map[string][]core.Tag)
	for rows.Next() {
		var txID string
		var tg core.Tag
		if err := rows.Scan(&txID, &tg.ID, &tg.Name, &tg.Color); err != nil {
			return fmt.Errorf("scan tag ref: %w", err)
		}
		byTransaction[txID] = append(byTransaction[txID], tg)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate tag refs: %w", err)
	}

	for i, id := range ids {
		details[i].Tags = byTransaction[id]
	}
	return nil
}

func replaceTagRefs(ctx context.Context, tx *sql.Tx, transactionID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO transaction_tags (transaction_id, tag_id) VALUES (?, ?)`,
			transactionID, tagID)
		if err != nil {
			return fmt.Errorf("insert tag ref: %w", err)
		}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
