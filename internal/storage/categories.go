package storage

import (
	"context"
	"fmt"
	"log/slog"

	"walletmate/internal/core"
)

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, kind, icon, color FROM categories ORDER BY name ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (s *Store) UpsertCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate category: %w", err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO categories (id, name, kind, icon, color) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, string(c.Kind), c.Icon, c.Color)
	if err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}

	s.notifier.broadcast()
	return nil
}

// DeleteCategory removes the category and detaches its transactions,
// which become uncategorized rather than deleted.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE transactions SET category_id = NULL WHERE category_id = ?`, id); err != nil {
		return fmt.Errorf("detach transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Category deleted", "category_id", id)
	s.notifier.broadcast()
	return nil
}
