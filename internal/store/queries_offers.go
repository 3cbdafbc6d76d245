// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const offerColumns = `id, shop_id, title, slug, description, starts_at, ends_at, is_active, created_at, updated_at`

func scanOffer(row interface{ Scan(...any) error }) (Offer, error) {
	var o Offer
	err := row.Scan(&o.ID, &o.ShopID, &o.Title, &o.Slug, &o.Description, &o.StartsAt,
		&o.EndsAt, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (q *Queries) collectOffers(ctx context.Context, query string, args ...any) ([]Offer, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// GetOfferByID fetches an offer by primary key.
func (q *Queries) GetOfferByID(ctx context.Context, id int64) (Offer, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = ?`, id)
	return scanOffer(row)
}

// ListOffers returns all offers, newest first.
func (q *Queries) ListOffers(ctx context.Context) ([]Offer, error) {
	return q.collectOffers(ctx, `SELECT `+offerColumns+` FROM offers ORDER BY created_at DESC`)
}

// ListCurrentOffers returns active offers whose window covers now.
func (q *Queries) ListCurrentOffers(ctx context.Context, now time.Time) ([]Offer, error) {
	return q.collectOffers(ctx,
		`SELECT `+offerColumns+` FROM offers
		 WHERE is_active = 1
		   AND (starts_at IS NULL OR starts_at <= ?)
		   AND (ends_at IS NULL OR ends_at >= ?)
		 ORDER BY created_at DESC`, now, now)
}

// ListExpiredActiveOffers returns active offers whose end date has passed.
// Consumed by the scheduler's deactivation job.
func (q *Queries) ListExpiredActiveOffers(ctx context.Context, now time.Time) ([]Offer, error) {
	return q.collectOffers(ctx,
		`SELECT `+offerColumns+` FROM offers
		 WHERE is_active = 1 AND ends_at IS NOT NULL AND ends_at < ?`, now)
}

// CountOffers returns the total number of offers.
func (q *Queries) CountOffers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM offers`).Scan(&count)
	return count, err
}

// CountOffersBySlug counts offers holding the given slug, excluding the
// given id (0 excludes nothing).
func (q *Queries) CountOffersBySlug(ctx context.Context, slug string, excludeID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM offers WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&count)
	return count, err
}

// CreateOfferParams holds fields for CreateOffer.
type CreateOfferParams struct {
	ShopID      sql.NullInt64
	Title       string
	Slug        string
	Description string
	StartsAt    sql.NullTime
	EndsAt      sql.NullTime
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateOffer inserts an offer and returns the stored row.
func (q *Queries) CreateOffer(ctx context.Context, arg CreateOfferParams) (Offer, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO offers (shop_id, title, slug, description, starts_at, ends_at, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ShopID, arg.Title, arg.Slug, arg.Description, arg.StartsAt, arg.EndsAt,
		arg.IsActive, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Offer{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Offer{}, err
	}
	return q.GetOfferByID(ctx, id)
}

// UpdateOfferParams holds fields for UpdateOffer.
type UpdateOfferParams struct {
	ID          int64
	ShopID      sql.NullInt64
	Title       string
	Slug        string
	Description string
	StartsAt    sql.NullTime
	EndsAt      sql.NullTime
	IsActive    bool
	UpdatedAt   time.Time
}

// UpdateOffer updates editable fields, scoped by id.
func (q *Queries) UpdateOffer(ctx context.Context, arg UpdateOfferParams) (Offer, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE offers SET shop_id = ?, title = ?, slug = ?, description = ?, starts_at = ?,
		 ends_at = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		arg.ShopID, arg.Title, arg.Slug, arg.Description, arg.StartsAt, arg.EndsAt,
		arg.IsActive, arg.UpdatedAt, arg.ID)
	if err != nil {
		return Offer{}, err
	}
	return q.GetOfferByID(ctx, arg.ID)
}

// SetOfferActive flips the is_active flag.
func (q *Queries) SetOfferActive(ctx context.Context, id int64, active bool, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE offers SET is_active = ?, updated_at = ? WHERE id = ?`, active, updatedAt, id)
	return err
}

// DeleteOffer removes an offer.
func (q *Queries) DeleteOffer(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM offers WHERE id = ?`, id)
	return err
}
