// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

// CategoryCountRow pairs a category name with its approved shop count.
type CategoryCountRow struct {
	Name  string
	Count int64
}

// CountShopsPerCategory returns approved, active shop counts grouped by
// category, in category display order. Uncategorised shops are excluded.
func (q *Queries) CountShopsPerCategory(ctx context.Context) ([]CategoryCountRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT c.name, COUNT(s.id)
		 FROM categories c
		 LEFT JOIN shops s ON s.category_id = c.id AND s.status = 'approved' AND s.is_active = 1
		 GROUP BY c.id
		 ORDER BY c.sort_order ASC, c.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CategoryCountRow
	for rows.Next() {
		var r CategoryCountRow
		if err := rows.Scan(&r.Name, &r.Count); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// RatingCountRow pairs a star rating with how many approved reviews hold it.
type RatingCountRow struct {
	Rating int64
	Count  int64
}

// CountReviewsPerRating returns approved review counts for each rating
// value that appears. Callers fill in the missing buckets.
func (q *Queries) CountReviewsPerRating(ctx context.Context) ([]RatingCountRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT rating, COUNT(*) FROM reviews
		 WHERE status = 'approved' GROUP BY rating ORDER BY rating ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RatingCountRow
	for rows.Next() {
		var r RatingCountRow
		if err := rows.Scan(&r.Rating, &r.Count); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// TopShopRow pairs a shop name with its average approved rating.
type TopShopRow struct {
	Name      string
	AvgRating float64
	Reviews   int64
}

// ListTopRatedShops returns approved, active shops ranked by average
// approved rating. Shops without reviews rank at zero.
func (q *Queries) ListTopRatedShops(ctx context.Context, limit int64) ([]TopShopRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT s.name, COALESCE(AVG(r.rating), 0), COUNT(r.id)
		 FROM shops s
		 LEFT JOIN reviews r ON r.shop_id = s.id AND r.status = 'approved'
		 WHERE s.status = 'approved' AND s.is_active = 1
		 GROUP BY s.id
		 ORDER BY COALESCE(AVG(r.rating), 0) DESC, s.name ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TopShopRow
	for rows.Next() {
		var r TopShopRow
		if err := rows.Scan(&r.Name, &r.AvgRating, &r.Reviews); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// DailyCountRow pairs a calendar day (YYYY-MM-DD) with an event count.
type DailyCountRow struct {
	Day   string
	Count int64
}

// CountAuditEventsPerDay returns per-day audit event counts since the
// given time. Days with no events are absent; callers fill the gaps.
func (q *Queries) CountAuditEventsPerDay(ctx context.Context, since time.Time) ([]DailyCountRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT date(created_at), COUNT(*) FROM audit_events
		 WHERE created_at >= ? GROUP BY date(created_at) ORDER BY date(created_at) ASC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DailyCountRow
	for rows.Next() {
		var r DailyCountRow
		if err := rows.Scan(&r.Day, &r.Count); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
