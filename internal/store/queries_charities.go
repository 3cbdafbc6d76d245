// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const charityColumns = `id, name, slug, description, website, donation_url, is_active, created_at, updated_at`

func scanCharity(row interface{ Scan(...any) error }) (Charity, error) {
	var c Charity
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Website, &c.DonationUrl,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *Queries) collectCharities(ctx context.Context, query string, args ...any) ([]Charity, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charities []Charity
	for rows.Next() {
		c, err := scanCharity(rows)
		if err != nil {
			return nil, err
		}
		charities = append(charities, c)
	}
	return charities, rows.Err()
}

// GetCharityByID fetches a charity by primary key.
func (q *Queries) GetCharityByID(ctx context.Context, id int64) (Charity, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+charityColumns+` FROM charities WHERE id = ?`, id)
	return scanCharity(row)
}

// GetCharityBySlug fetches a charity by slug.
func (q *Queries) GetCharityBySlug(ctx context.Context, slug string) (Charity, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+charityColumns+` FROM charities WHERE slug = ?`, slug)
	return scanCharity(row)
}

// ListCharities returns all charities alphabetically.
func (q *Queries) ListCharities(ctx context.Context) ([]Charity, error) {
	return q.collectCharities(ctx, `SELECT `+charityColumns+` FROM charities ORDER BY name ASC`)
}

// ListActiveCharities returns active charities alphabetically.
func (q *Queries) ListActiveCharities(ctx context.Context) ([]Charity, error) {
	return q.collectCharities(ctx,
		`SELECT `+charityColumns+` FROM charities WHERE is_active = 1 ORDER BY name ASC`)
}

// CountCharities returns the total number of charities.
func (q *Queries) CountCharities(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM charities`).Scan(&count)
	return count, err
}

// CountCharitiesBySlug counts charities holding the given slug, excluding
// the given id (0 excludes nothing).
func (q *Queries) CountCharitiesBySlug(ctx context.Context, slug string, excludeID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM charities WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&count)
	return count, err
}

// CreateCharityParams holds fields for CreateCharity.
type CreateCharityParams struct {
	Name        string
	Slug        string
	Description string
	Website     string
	DonationUrl string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateCharity inserts a charity and returns the stored row.
func (q *Queries) CreateCharity(ctx context.Context, arg CreateCharityParams) (Charity, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO charities (name, slug, description, website, donation_url, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Name, arg.Slug, arg.Description, arg.Website, arg.DonationUrl,
		arg.IsActive, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Charity{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Charity{}, err
	}
	return q.GetCharityByID(ctx, id)
}

// UpdateCharityParams holds fields for UpdateCharity.
type UpdateCharityParams struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	Website     string
	DonationUrl string
	IsActive    bool
	UpdatedAt   time.Time
}

// UpdateCharity updates editable fields, scoped by id.
func (q *Queries) UpdateCharity(ctx context.Context, arg UpdateCharityParams) (Charity, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE charities SET name = ?, slug = ?, description = ?, website = ?, donation_url = ?,
		 is_active = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Name, arg.Slug, arg.Description, arg.Website, arg.DonationUrl,
		arg.IsActive, arg.UpdatedAt, arg.ID)
	if err != nil {
		return Charity{}, err
	}
	return q.GetCharityByID(ctx, arg.ID)
}

// SetCharityActive flips the is_active flag.
func (q *Queries) SetCharityActive(ctx context.Context, id int64, active bool, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE charities SET is_active = ?, updated_at = ? WHERE id = ?`, active, updatedAt, id)
	return err
}

// DeleteCharity removes a charity. Campaigns referencing it fall back to
// NULL via the FK constraint.
func (q *Queries) DeleteCharity(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM charities WHERE id = ?`, id)
	return err
}
