// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const shopColumns = `id, name, slug, description, category_id, address, phone, website,
	latitude, longitude, image_url, status, is_featured, is_active, created_at, updated_at`

func scanShop(row interface{ Scan(...any) error }) (Shop, error) {
	var s Shop
	err := row.Scan(&s.ID, &s.Name, &s.Slug, &s.Description, &s.CategoryID, &s.Address,
		&s.Phone, &s.Website, &s.Latitude, &s.Longitude, &s.ImageUrl, &s.Status,
		&s.IsFeatured, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (q *Queries) collectShops(ctx context.Context, query string, args ...any) ([]Shop, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shops []Shop
	for rows.Next() {
		s, err := scanShop(rows)
		if err != nil {
			return nil, err
		}
		shops = append(shops, s)
	}
	return shops, rows.Err()
}

// GetShopByID fetches a shop by primary key.
func (q *Queries) GetShopByID(ctx context.Context, id int64) (Shop, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+shopColumns+` FROM shops WHERE id = ?`, id)
	return scanShop(row)
}

// GetShopBySlug fetches a shop by slug.
func (q *Queries) GetShopBySlug(ctx context.Context, slug string) (Shop, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+shopColumns+` FROM shops WHERE slug = ?`, slug)
	return scanShop(row)
}

// ListShops returns every shop, newest first.
func (q *Queries) ListShops(ctx context.Context) ([]Shop, error) {
	return q.collectShops(ctx, `SELECT `+shopColumns+` FROM shops ORDER BY created_at DESC`)
}

// ListShopsByStatus returns shops with the given status, newest first.
func (q *Queries) ListShopsByStatus(ctx context.Context, status string) ([]Shop, error) {
	return q.collectShops(ctx,
		`SELECT `+shopColumns+` FROM shops WHERE status = ? ORDER BY created_at DESC`, status)
}

// ListVisibleShops returns approved, active shops ordered by name, for
// the public directory.
func (q *Queries) ListVisibleShops(ctx context.Context) ([]Shop, error) {
	return q.collectShops(ctx,
		`SELECT `+shopColumns+` FROM shops WHERE status = 'approved' AND is_active = 1 ORDER BY name ASC`)
}

// ListFeaturedShops returns featured, approved, active shops for the home page.
func (q *Queries) ListFeaturedShops(ctx context.Context, limit int64) ([]Shop, error) {
	return q.collectShops(ctx,
		`SELECT `+shopColumns+` FROM shops
		 WHERE status = 'approved' AND is_active = 1 AND is_featured = 1
		 ORDER BY name ASC LIMIT ?`, limit)
}

// CountShops returns the total number of shops.
func (q *Queries) CountShops(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shops`).Scan(&count)
	return count, err
}

// CountShopsByStatus counts shops with the given status.
func (q *Queries) CountShopsByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shops WHERE status = ?`, status).Scan(&count)
	return count, err
}

// CountShopsBySlug counts shops holding the given slug, excluding the
// given id (0 excludes nothing).
func (q *Queries) CountShopsBySlug(ctx context.Context, slug string, excludeID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shops WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&count)
	return count, err
}

// CreateShopParams holds fields for CreateShop.
type CreateShopParams struct {
	Name        string
	Slug        string
	Description string
	CategoryID  sql.NullInt64
	Address     string
	Phone       string
	Website     string
	Latitude    sql.NullFloat64
	Longitude   sql.NullFloat64
	ImageUrl    string
	Status      string
	IsFeatured  bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateShop inserts a shop and returns the stored row.
func (q *Queries) CreateShop(ctx context.Context, arg CreateShopParams) (Shop, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO shops (name, slug, description, category_id, address, phone, website,
		 latitude, longitude, image_url, status, is_featured, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Name, arg.Slug, arg.Description, arg.CategoryID, arg.Address, arg.Phone, arg.Website,
		arg.Latitude, arg.Longitude, arg.ImageUrl, arg.Status, arg.IsFeatured, arg.IsActive,
		arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Shop{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Shop{}, err
	}
	return q.GetShopByID(ctx, id)
}

// UpdateShopParams holds fields for UpdateShop.
type UpdateShopParams struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	CategoryID  sql.NullInt64
	Address     string
	Phone       string
	Website     string
	Latitude    sql.NullFloat64
	Longitude   sql.NullFloat64
	ImageUrl    string
	IsFeatured  bool
	IsActive    bool
	UpdatedAt   time.Time
}

// UpdateShop updates editable fields, scoped by id. Status changes go
// through UpdateShopStatus so moderation stays the only status path.
func (q *Queries) UpdateShop(ctx context.Context, arg UpdateShopParams) (Shop, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE shops SET name = ?, slug = ?, description = ?, category_id = ?, address = ?,
		 phone = ?, website = ?, latitude = ?, longitude = ?, image_url = ?,
		 is_featured = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Name, arg.Slug, arg.Description, arg.CategoryID, arg.Address, arg.Phone, arg.Website,
		arg.Latitude, arg.Longitude, arg.ImageUrl, arg.IsFeatured, arg.IsActive, arg.UpdatedAt, arg.ID)
	if err != nil {
		return Shop{}, err
	}
	return q.GetShopByID(ctx, arg.ID)
}

// UpdateShopStatus moves a shop through the moderation lifecycle.
func (q *Queries) UpdateShopStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE shops SET status = ?, updated_at = ? WHERE id = ?`, status, updatedAt, id)
	return err
}

// SetShopFeatured flips the is_featured flag.
func (q *Queries) SetShopFeatured(ctx context.Context, id int64, featured bool, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE shops SET is_featured = ?, updated_at = ? WHERE id = ?`, featured, updatedAt, id)
	return err
}

// SetShopActive flips the is_active flag.
func (q *Queries) SetShopActive(ctx context.Context, id int64, active bool, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE shops SET is_active = ?, updated_at = ? WHERE id = ?`, active, updatedAt, id)
	return err
}

// DeleteShop removes a shop; its reviews cascade.
func (q *Queries) DeleteShop(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM shops WHERE id = ?`, id)
	return err
}
