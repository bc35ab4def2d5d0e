package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RecordTitleCategory remembers which category the user assigned to a
// title. Last write for a title wins; the key is case-sensitive.
func (s *Store) RecordTitleCategory(ctx context.Context, title, categoryID string) error {
	if title == "" || categoryID == "" {
		return nil // nothing worth remembering
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO title_category_map (title, category_id) VALUES (?, ?)`,
		title, categoryID)
	if err != nil {
		return fmt.Errorf("record title category: %w", err)
	}
	return nil
}

// LookupCategoryForTitle returns the remembered category id for an exact
// title match, or ok=false when the title was never categorized.
func (s *Store) LookupCategoryForTitle(ctx context.Context, title string) (string, bool, error) {
	var categoryID string
	err := s.db.QueryRowContext(ctx,
		`SELECT category_id FROM title_category_map WHERE title = ?`, title).Scan(&categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup title category: %w", err)
	}
	return categoryID, true, nil
}
