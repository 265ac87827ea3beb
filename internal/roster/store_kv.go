package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetValue reads a value from the key-value table, returning "" when absent.
func (s *Store) GetValue(ctx context.Context, key string) (string, error) {
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT value FROM key_value WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get value: %w", err)
	}
	return value.String, nil
}

// SetValue writes a value into the key-value table.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO key_value (key, value) VALUES (?, ?)
         ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return nil
}
