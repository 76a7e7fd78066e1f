package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultSettings holds the built-in runtime settings. Stored values
// overlay these; resetting a key falls back here.
var DefaultSettings = map[string]any{
	"embedding_provider": "openai",
	"embedding_model":    "text-embedding-3-small",
	"search_limit":       float64(5),
	"auto_capture":       true,
}

// GetSetting returns the value for key, falling back to the default.
// Unknown keys return nil.
func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultSettings[key], nil
	}
	if err != nil {
		return nil, err
	}
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("decode setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a value for key, replacing any previous value.
func (s *SQLiteStore) SetSetting(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(raw))
	return err
}

// ResetSetting removes any stored value for key, restoring the default.
func (s *SQLiteStore) ResetSetting(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	return err
}

// AllSettings returns the defaults overlaid with all stored values.
func (s *SQLiteStore) AllSettings(ctx context.Context) (map[string]any, error) {
	out := make(map[string]any, len(DefaultSettings))
	for k, v := range DefaultSettings {
		out[k] = v
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("decode setting %q: %w", key, err)
		}
		out[key] = value
	}
	return out, rows.Err()
}
