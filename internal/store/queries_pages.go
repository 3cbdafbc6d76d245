// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const infoPageColumns = `id, title, slug, body, is_published, created_at, updated_at`

func scanInfoPage(row interface{ Scan(...any) error }) (InfoPage, error) {
	var p InfoPage
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Body, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q *Queries) collectInfoPages(ctx context.Context, query string, args ...any) ([]InfoPage, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []InfoPage
	for rows.Next() {
		p, err := scanInfoPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// GetInfoPageByID fetches an info page by primary key.
func (q *Queries) GetInfoPageByID(ctx context.Context, id int64) (InfoPage, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+infoPageColumns+` FROM info_pages WHERE id = ?`, id)
	return scanInfoPage(row)
}

// GetInfoPageBySlug fetches an info page by slug.
func (q *Queries) GetInfoPageBySlug(ctx context.Context, slug string) (InfoPage, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+infoPageColumns+` FROM info_pages WHERE slug = ?`, slug)
	return scanInfoPage(row)
}

// GetPublishedInfoPageBySlug fetches a published page by slug, for the
// public site.
func (q *Queries) GetPublishedInfoPageBySlug(ctx context.Context, slug string) (InfoPage, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+infoPageColumns+` FROM info_pages WHERE slug = ? AND is_published = 1`, slug)
	return scanInfoPage(row)
}

// ListInfoPages returns all info pages alphabetically by title.
func (q *Queries) ListInfoPages(ctx context.Context) ([]InfoPage, error) {
	return q.collectInfoPages(ctx, `SELECT `+infoPageColumns+` FROM info_pages ORDER BY title ASC`)
}

// ListPublishedInfoPages returns published pages alphabetically by title.
func (q *Queries) ListPublishedInfoPages(ctx context.Context) ([]InfoPage, error) {
	return q.collectInfoPages(ctx,
		`SELECT `+infoPageColumns+` FROM info_pages WHERE is_published = 1 ORDER BY title ASC`)
}

// CountInfoPages returns the total number of info pages.
func (q *Queries) CountInfoPages(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM info_pages`).Scan(&count)
	return count, err
}

// CountInfoPagesBySlug counts info pages holding the given slug, excluding
// the given id (0 excludes nothing).
func (q *Queries) CountInfoPagesBySlug(ctx context.Context, slug string, excludeID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM info_pages WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&count)
	return count, err
}

// CreateInfoPageParams holds fields for CreateInfoPage.
type CreateInfoPageParams struct {
	Title       string
	Slug        string
	Body        string
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateInfoPage inserts an info page and returns the stored row.
func (q *Queries) CreateInfoPage(ctx context.Context, arg CreateInfoPageParams) (InfoPage, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO info_pages (title, slug, body, is_published, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Slug, arg.Body, arg.IsPublished, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return InfoPage{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return InfoPage{}, err
	}
	return q.GetInfoPageByID(ctx, id)
}

// UpdateInfoPageParams holds fields for UpdateInfoPage.
type UpdateInfoPageParams struct {
	ID          int64
	Title       string
	Slug        string
	Body        string
	IsPublished bool
	UpdatedAt   time.Time
}

// UpdateInfoPage updates editable fields, scoped by id.
func (q *Queries) UpdateInfoPage(ctx context.Context, arg UpdateInfoPageParams) (InfoPage, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE info_pages SET title = ?, slug = ?, body = ?, is_published = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Title, arg.Slug, arg.Body, arg.IsPublished, arg.UpdatedAt, arg.ID)
	if err != nil {
		return InfoPage{}, err
	}
	return q.GetInfoPageByID(ctx, arg.ID)
}

// SetInfoPagePublished flips the is_published flag.
func (q *Queries) SetInfoPagePublished(ctx context.Context, id int64, published bool, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE info_pages SET is_published = ?, updated_at = ? WHERE id = ?`, published, updatedAt, id)
	return err
}

// DeleteInfoPage removes an info page.
func (q *Queries) DeleteInfoPage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM info_pages WHERE id = ?`, id)
	return err
}
