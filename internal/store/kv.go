package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetValue reads a kv entry. The second return reports whether the key exists.
func (s *Store) GetValue(ctx context.Context, key string) (string, bool, error) {
	ctx = ensureContext(ctx)
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read kv %q: %w", key, err)
	}
	return value, true, nil
}

// SetValue upserts a single kv entry.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("write kv %q: %w", key, err)
	}
	return nil
}

// SetValues upserts several kv entries in one write transaction so related
// metadata (version + timestamp) lands atomically or not at all.
func (s *Store) SetValues(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin kv tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		for key, value := range values {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO kv (key, value) VALUES (?, ?)
                 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
				return fmt.Errorf("write kv %q: %w", key, err)
			}
		}
		return tx.Commit()
	})
}
