package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetPref returns the stored value for a preference key; ok=false when
// the key was never set.
func (s *Store) GetPref(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM user_prefs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get pref %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) SetPref(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO user_prefs (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("set pref %s: %w", key, err)
	}
	s.notifier.broadcast()
	return nil
}

// StreamPref pushes the current value immediately and again after every
// change; an unset key streams the empty string.
func (s *Store) StreamPref(ctx context.Context, key string) <-chan string {
	return liveQuery(ctx, s.notifier, func(ctx context.Context) (string, error) {
		value, _, err := s.GetPref(ctx, key)
		return value, err
	})
}
