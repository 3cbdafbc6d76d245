// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const reviewColumns = `id, shop_id, author_name, rating, body, status, country_code, device_type, created_at, updated_at`

func scanReview(row interface{ Scan(...any) error }) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.ShopID, &r.AuthorName, &r.Rating, &r.Body, &r.Status,
		&r.CountryCode, &r.DeviceType, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (q *Queries) collectReviews(ctx context.Context, query string, args ...any) ([]Review, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// GetReviewByID fetches a review by primary key.
func (q *Queries) GetReviewByID(ctx context.Context, id int64) (Review, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)
	return scanReview(row)
}

// ListReviewsByStatus returns reviews with the given status, newest first.
func (q *Queries) ListReviewsByStatus(ctx context.Context, status string) ([]Review, error) {
	return q.collectReviews(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE status = ? ORDER BY created_at DESC`, status)
}

// ListApprovedReviewsForShop returns a shop's approved reviews, newest first.
func (q *Queries) ListApprovedReviewsForShop(ctx context.Context, shopID int64) ([]Review, error) {
	return q.collectReviews(ctx,
		`SELECT `+reviewColumns+` FROM reviews
		 WHERE shop_id = ? AND status = 'approved' ORDER BY created_at DESC`, shopID)
}

// CountReviewsByStatus counts reviews with the given status.
func (q *Queries) CountReviewsByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE status = ?`, status).Scan(&count)
	return count, err
}

// CreateReviewParams holds fields for CreateReview.
type CreateReviewParams struct {
	ShopID      int64
	AuthorName  string
	Rating      int64
	Body        string
	Status      string
	CountryCode string
	DeviceType  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateReview inserts a review and returns the stored row.
func (q *Queries) CreateReview(ctx context.Context, arg CreateReviewParams) (Review, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO reviews (shop_id, author_name, rating, body, status, country_code, device_type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ShopID, arg.AuthorName, arg.Rating, arg.Body, arg.Status, arg.CountryCode,
		arg.DeviceType, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Review{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Review{}, err
	}
	return q.GetReviewByID(ctx, id)
}

// UpdateReviewStatus moves a review through the moderation lifecycle.
func (q *Queries) UpdateReviewStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE reviews SET status = ?, updated_at = ? WHERE id = ?`, status, updatedAt, id)
	return err
}

// DeleteReview removes a review.
func (q *Queries) DeleteReview(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	return err
}
