package storage

import (
	"context"
	"fmt"
	"log/slog"

	"walletmate/internal/core"
)

func (s *Store) ListTags(ctx context.Context) ([]core.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color FROM tags ORDER BY name ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []core.Tag
	for rows.Next() {
		var tg core.Tag
		if err := rows.Scan(&tg.ID, &tg.Name, &tg.Color); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

func (s *Store) UpsertTag(ctx context.Context, tg core.Tag) error {
	if err := tg.Validate(); err != nil {
		return fmt.Errorf("validate tag: %w", err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tags (id, name, color) VALUES (?, ?, ?)`,
		tg.ID, tg.Name, tg.Color)
	if err != nil {
		return fmt.Errorf("upsert tag: %w", err)
	}

	s.notifier.broadcast()
	return nil
}

// DeleteTag removes the tag and all its transaction associations.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transaction_tags WHERE tag_id = ?`, id); err != nil {
		return fmt.Errorf("delete tag refs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Tag deleted", "tag_id", id)
	s.notifier.broadcast()
	return nil
}
