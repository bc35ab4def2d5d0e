// Package storage implements the record store over SQLite. Every mutation
// notifies subscribers so stream readers can re-derive their snapshots.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"walletmate/internal/core"

	_ "modernc.org/sqlite"
)

type Store struct {
	db       *sql.DB
	notifier *notifier
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:       db,
		notifier: newNotifier(),
	}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ClearAll wipes every user record: cross-refs, transactions, categories,
// tags, title associations and preferences. The seed categories are
// restored afterwards.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM transaction_tags`,
		`DELETE FROM transactions`,
		`DELETE FROM categories`,
		`DELETE FROM tags`,
		`DELETE FROM title_category_map`,
		`DELETE FROM user_prefs`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear data: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}

	if err := s.SeedDefaults(ctx); err != nil {
		return err
	}

	slog.InfoContext(ctx, "All user data cleared")
	s.notifier.broadcast()
	return nil
}

// SeedDefaults inserts the per-kind "Uncategorized" categories when they
// are missing. Idempotent; safe to run on every startup.
func (s *Store) SeedDefaults(ctx context.Context) error {
	seeds := []core.Category{
		{ID: "uncategorized-expense", Name: core.UncategorizedName, Kind: core.Expense, Icon: "help", Color: core.NeutralColor},
		{ID: "uncategorized-income", Name: core.UncategorizedName, Kind: core.Income, Icon: "help", Color: core.NeutralColor},
	}
	for _, c := range seeds {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO categories (id, name, kind, icon, color) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Name, string(c.Kind), c.Icon, c.Color)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", c.ID, err)
		}
	}
	return nil
}
