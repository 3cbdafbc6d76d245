// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const categoryColumns = `id, name, slug, description, icon, sort_order, is_active, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.SortOrder,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *Queries) collectCategories(ctx context.Context, query string, args ...any) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategoryByID fetches a category by primary key.
func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (Category, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

// GetCategoryBySlug fetches a category by slug.
func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = ?`, slug)
	return scanCategory(row)
}

// ListCategories returns all categories in display order.
func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	return q.collectCategories(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY sort_order ASC, id ASC`)
}

// ListActiveCategories returns active categories in display order.
func (q *Queries) ListActiveCategories(ctx context.Context) ([]Category, error) {
	return q.collectCategories(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE is_active = 1 ORDER BY sort_order ASC, id ASC`)
}

// CountCategories returns the total number of categories.
func (q *Queries) CountCategories(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count)
	return count, err
}

// CountCategoriesBySlug counts categories holding the given slug,
// excluding the given id (0 excludes nothing). Used for uniqueness checks.
func (q *Queries) CountCategoriesBySlug(ctx context.Context, slug string, excludeID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&count)
	return count, err
}

// MaxCategorySortOrder returns the highest sort_order, 0 when empty.
func (q *Queries) MaxCategorySortOrder(ctx context.Context) (int64, error) {
	var max int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), 0) FROM categories`).Scan(&max)
	return max, err
}

// CreateCategoryParams holds fields for CreateCategory.
type CreateCategoryParams struct {
	Name        string
	Slug        string
	Description string
	Icon        string
	SortOrder   int64
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateCategory inserts a category and returns the stored row.
func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (name, slug, description, icon, sort_order, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Name, arg.Slug, arg.Description, arg.Icon, arg.SortOrder, arg.IsActive, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Category{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Category{}, err
	}
	return q.GetCategoryByID(ctx, id)
}

// UpdateCategoryParams holds fields for UpdateCategory.
type UpdateCategoryParams struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	Icon        string
	IsActive    bool
	UpdatedAt   time.Time
}

// UpdateCategory updates editable fields, scoped by id. sort_order is
// managed separately by the reorder operation.
func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, slug = ?, description = ?, icon = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Name, arg.Slug, arg.Description, arg.Icon, arg.IsActive, arg.UpdatedAt, arg.ID)
	if err != nil {
		return Category{}, err
	}
	return q.GetCategoryByID(ctx, arg.ID)
}

// SetCategoryActive flips the is_active flag.
func (q *Queries) SetCategoryActive(ctx context.Context, id int64, active bool, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE categories SET is_active = ?, updated_at = ? WHERE id = ?`, active, updatedAt, id)
	return err
}

// UpdateCategorySortOrder sets a single row's sort_order.
func (q *Queries) UpdateCategorySortOrder(ctx context.Context, id, sortOrder int64, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE categories SET sort_order = ?, updated_at = ? WHERE id = ?`, sortOrder, updatedAt, id)
	return err
}

// DeleteCategory removes a category. Shops referencing it fall back to
// NULL via the FK constraint.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}
