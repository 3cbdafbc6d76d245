// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

// GetConfigValue fetches a single site_config value by key.
func (q *Queries) GetConfigValue(ctx context.Context, key string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx,
		`SELECT value FROM site_config WHERE key = ?`, key).Scan(&value)
	return value, err
}

// ListConfig returns all site_config rows ordered by key.
func (q *Queries) ListConfig(ctx context.Context) ([]ConfigEntry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT key, value, updated_at FROM site_config ORDER BY key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ConfigEntry
	for rows.Next() {
		var e ConfigEntry
		if err := rows.Scan(&e.Key, &e.Value, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SetConfigValue upserts a site_config key.
func (q *Queries) SetConfigValue(ctx context.Context, key, value string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO site_config (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, updatedAt)
	return err
}

// DeleteConfigValue removes a site_config key.
func (q *Queries) DeleteConfigValue(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM site_config WHERE key = ?`, key)
	return err
}
