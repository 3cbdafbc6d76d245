// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const eventColumns = `id, title, slug, description, venue, starts_at, ends_at, is_featured, is_active, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Title, &e.Slug, &e.Description, &e.Venue, &e.StartsAt,
		&e.EndsAt, &e.IsFeatured, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (q *Queries) collectEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetEventByID fetches an event by primary key.
func (q *Queries) GetEventByID(ctx context.Context, id int64) (Event, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	return scanEvent(row)
}

// ListEvents returns all events, soonest first.
func (q *Queries) ListEvents(ctx context.Context) ([]Event, error) {
	return q.collectEvents(ctx, `SELECT `+eventColumns+` FROM events ORDER BY starts_at ASC`)
}

// ListUpcomingEvents returns active events starting at or after now.
func (q *Queries) ListUpcomingEvents(ctx context.Context, now time.Time, limit int64) ([]Event, error) {
	return q.collectEvents(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE is_active = 1 AND starts_at >= ? ORDER BY starts_at ASC LIMIT ?`, now, limit)
}

// CountEvents returns the total number of events.
func (q *Queries) CountEvents(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count)
	return count, err
}

// CountEventsBySlug counts events holding the given slug, excluding the
// given id (0 excludes nothing).
func (q *Queries) CountEventsBySlug(ctx context.Context, slug string, excludeID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&count)
	return count, err
}

// CreateEventParams holds fields for CreateEvent.
type CreateEventParams struct {
	Title       string
	Slug        string
	Description string
	Venue       string
	StartsAt    time.Time
	EndsAt      sql.NullTime
	IsFeatured  bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateEvent inserts an event and returns the stored row.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO events (title, slug, description, venue, starts_at, ends_at, is_featured, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Slug, arg.Description, arg.Venue, arg.StartsAt, arg.EndsAt,
		arg.IsFeatured, arg.IsActive, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Event{}, err
	}
	return q.GetEventByID(ctx, id)
}

// UpdateEventParams holds fields for UpdateEvent.
type UpdateEventParams struct {
	ID          int64
	Title       string
	Slug        string
	Description string
	Venue       string
	StartsAt    time.Time
	EndsAt      sql.NullTime
	IsFeatured  bool
	IsActive    bool
	UpdatedAt   time.Time
}

// UpdateEvent updates editable fields, scoped by id.
func (q *Queries) UpdateEvent(ctx context.Context, arg UpdateEventParams) (Event, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE events SET title = ?, slug = ?, description = ?, venue = ?, starts_at = ?,
		 ends_at = ?, is_featured = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Title, arg.Slug, arg.Description, arg.Venue, arg.StartsAt, arg.EndsAt,
		arg.IsFeatured, arg.IsActive, arg.UpdatedAt, arg.ID)
	if err != nil {
		return Event{}, err
	}
	return q.GetEventByID(ctx, arg.ID)
}

// SetEventFeatured flips the is_featured flag.
func (q *Queries) SetEventFeatured(ctx context.Context, id int64, featured bool, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE events SET is_featured = ?, updated_at = ? WHERE id = ?`, featured, updatedAt, id)
	return err
}

// SetEventActive flips the is_active flag.
func (q *Queries) SetEventActive(ctx context.Context, id int64, active bool, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE events SET is_active = ?, updated_at = ? WHERE id = ?`, active, updatedAt, id)
	return err
}

// DeleteEvent removes an event.
func (q *Queries) DeleteEvent(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	return err
}
