// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const quickLinkColumns = `id, label, url, icon, sort_order, is_active, created_at, updated_at`

func scanQuickLink(row interface{ Scan(...any) error }) (QuickLink, error) {
	var l QuickLink
	err := row.Scan(&l.ID, &l.Label, &l.Url, &l.Icon, &l.SortOrder, &l.IsActive,
		&l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (q *Queries) collectQuickLinks(ctx context.Context, query string, args ...any) ([]QuickLink, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []QuickLink
	for rows.Next() {
		l, err := scanQuickLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// GetQuickLinkByID fetches a quick link by primary key.
func (q *Queries) GetQuickLinkByID(ctx context.Context, id int64) (QuickLink, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+quickLinkColumns+` FROM quick_links WHERE id = ?`, id)
	return scanQuickLink(row)
}

// ListQuickLinks returns all quick links in display order.
func (q *Queries) ListQuickLinks(ctx context.Context) ([]QuickLink, error) {
	return q.collectQuickLinks(ctx,
		`SELECT `+quickLinkColumns+` FROM quick_links ORDER BY sort_order ASC, id ASC`)
}

// ListActiveQuickLinks returns active quick links in display order.
func (q *Queries) ListActiveQuickLinks(ctx context.Context) ([]QuickLink, error) {
	return q.collectQuickLinks(ctx,
		`SELECT `+quickLinkColumns+` FROM quick_links WHERE is_active = 1 ORDER BY sort_order ASC, id ASC`)
}

// CountQuickLinks returns the total number of quick links.
func (q *Queries) CountQuickLinks(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quick_links`).Scan(&count)
	return count, err
}

// MaxQuickLinkSortOrder returns the highest sort_order, 0 when empty.
func (q *Queries) MaxQuickLinkSortOrder(ctx context.Context) (int64, error) {
	var max int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), 0) FROM quick_links`).Scan(&max)
	return max, err
}

// CreateQuickLinkParams holds fields for CreateQuickLink.
type CreateQuickLinkParams struct {
	Label     string
	Url       string
	Icon      string
	SortOrder int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateQuickLink inserts a quick link and returns the stored row.
func (q *Queries) CreateQuickLink(ctx context.Context, arg CreateQuickLinkParams) (QuickLink, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO quick_links (label, url, icon, sort_order, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.Label, arg.Url, arg.Icon, arg.SortOrder, arg.IsActive, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return QuickLink{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return QuickLink{}, err
	}
	return q.GetQuickLinkByID(ctx, id)
}

// UpdateQuickLinkParams holds fields for UpdateQuickLink.
type UpdateQuickLinkParams struct {
	ID        int64
	Label     string
	Url       string
	Icon      string
	IsActive  bool
	UpdatedAt time.Time
}

// UpdateQuickLink updates editable fields, scoped by id. sort_order is
// managed separately by the reorder operation.
func (q *Queries) UpdateQuickLink(ctx context.Context, arg UpdateQuickLinkParams) (QuickLink, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE quick_links SET label = ?, url = ?, icon = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Label, arg.Url, arg.Icon, arg.IsActive, arg.UpdatedAt, arg.ID)
	if err != nil {
		return QuickLink{}, err
	}
	return q.GetQuickLinkByID(ctx, arg.ID)
}

// SetQuickLinkActive flips the is_active flag.
func (q *Queries) SetQuickLinkActive(ctx context.Context, id int64, active bool, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE quick_links SET is_active = ?, updated_at = ? WHERE id = ?`, active, updatedAt, id)
	return err
}

// UpdateQuickLinkSortOrder sets a single row's sort_order.
func (q *Queries) UpdateQuickLinkSortOrder(ctx context.Context, id, sortOrder int64, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE quick_links SET sort_order = ?, updated_at = ? WHERE id = ?`, sortOrder, updatedAt, id)
	return err
}

// DeleteQuickLink removes a quick link.
func (q *Queries) DeleteQuickLink(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM quick_links WHERE id = ?`, id)
	return err
}
