// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const dogWalkColumns = `id, title, walk_date, meeting_point, is_active, created_at, updated_at`

func scanDogWalk(row interface{ Scan(...any) error }) (DogWalk, error) {
	var w DogWalk
	err := row.Scan(&w.ID, &w.Title, &w.WalkDate, &w.MeetingPoint, &w.IsActive,
		&w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func (q *Queries) collectDogWalks(ctx context.Context, query string, args ...any) ([]DogWalk, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var walks []DogWalk
	for rows.Next() {
		w, err := scanDogWalk(rows)
		if err != nil {
			return nil, err
		}
		walks = append(walks, w)
	}
	return walks, rows.Err()
}

// GetDogWalkByID fetches a dog walk by primary key.
func (q *Queries) GetDogWalkByID(ctx context.Context, id int64) (DogWalk, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+dogWalkColumns+` FROM dog_walks WHERE id = ?`, id)
	return scanDogWalk(row)
}

// ListDogWalks returns all walks, soonest first.
func (q *Queries) ListDogWalks(ctx context.Context) ([]DogWalk, error) {
	return q.collectDogWalks(ctx, `SELECT `+dogWalkColumns+` FROM dog_walks ORDER BY walk_date ASC`)
}

// ListUpcomingDogWalks returns active walks dated at or after now.
func (q *Queries) ListUpcomingDogWalks(ctx context.Context, now time.Time) ([]DogWalk, error) {
	return q.collectDogWalks(ctx,
		`SELECT `+dogWalkColumns+` FROM dog_walks
		 WHERE is_active = 1 AND walk_date >= ? ORDER BY walk_date ASC`, now)
}

// CreateDogWalkParams holds fields for CreateDogWalk.
type CreateDogWalkParams struct {
	Title        string
	WalkDate     time.Time
	MeetingPoint string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateDogWalk inserts a walk and returns the stored row.
func (q *Queries) CreateDogWalk(ctx context.Context, arg CreateDogWalkParams) (DogWalk, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO dog_walks (title, walk_date, meeting_point, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.WalkDate, arg.MeetingPoint, arg.IsActive, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return DogWalk{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return DogWalk{}, err
	}
	return q.GetDogWalkByID(ctx, id)
}

// UpdateDogWalkParams holds fields for UpdateDogWalk.
type UpdateDogWalkParams struct {
	ID           int64
	Title        string
	WalkDate     time.Time
	MeetingPoint string
	IsActive     bool
	UpdatedAt    time.Time
}

// UpdateDogWalk updates editable fields, scoped by id.
func (q *Queries) UpdateDogWalk(ctx context.Context, arg UpdateDogWalkParams) (DogWalk, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE dog_walks SET title = ?, walk_date = ?, meeting_point = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Title, arg.WalkDate, arg.MeetingPoint, arg.IsActive, arg.UpdatedAt, arg.ID)
	if err != nil {
		return DogWalk{}, err
	}
	return q.GetDogWalkByID(ctx, arg.ID)
}

// SetDogWalkActive flips the is_active flag.
func (q *Queries) SetDogWalkActive(ctx context.Context, id int64, active bool, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE dog_walks SET is_active = ?, updated_at = ? WHERE id = ?`, active, updatedAt, id)
	return err
}

// DeleteDogWalk removes a walk; its attendance rows cascade.
func (q *Queries) DeleteDogWalk(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM dog_walks WHERE id = ?`, id)
	return err
}

const walkAttendanceColumns = `id, walk_id, attendee_name, dog_name, created_at`

func scanWalkAttendance(row interface{ Scan(...any) error }) (WalkAttendance, error) {
	var a WalkAttendance
	err := row.Scan(&a.ID, &a.WalkID, &a.AttendeeName, &a.DogName, &a.CreatedAt)
	return a, err
}

// GetWalkAttendanceByID fetches an attendance row by primary key.
func (q *Queries) GetWalkAttendanceByID(ctx context.Context, id int64) (WalkAttendance, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+walkAttendanceColumns+` FROM walk_attendance WHERE id = ?`, id)
	return scanWalkAttendance(row)
}

// ListWalkAttendance returns a walk's attendees in sign-up order.
func (q *Queries) ListWalkAttendance(ctx context.Context, walkID int64) ([]WalkAttendance, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+walkAttendanceColumns+` FROM walk_attendance WHERE walk_id = ? ORDER BY created_at ASC, id ASC`, walkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attendance []WalkAttendance
	for rows.Next() {
		a, err := scanWalkAttendance(rows)
		if err != nil {
			return nil, err
		}
		attendance = append(attendance, a)
	}
	return attendance, rows.Err()
}

// CountWalkAttendance counts a walk's attendees.
func (q *Queries) CountWalkAttendance(ctx context.Context, walkID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM walk_attendance WHERE walk_id = ?`, walkID).Scan(&count)
	return count, err
}

// CreateWalkAttendanceParams holds fields for CreateWalkAttendance.
type CreateWalkAttendanceParams struct {
	WalkID       int64
	AttendeeName string
	DogName      string
	CreatedAt    time.Time
}

// CreateWalkAttendance records an attendee for a walk.
func (q *Queries) CreateWalkAttendance(ctx context.Context, arg CreateWalkAttendanceParams) (WalkAttendance, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO walk_attendance (walk_id, attendee_name, dog_name, created_at)
		 VALUES (?, ?, ?, ?)`,
		arg.WalkID, arg.AttendeeName, arg.DogName, arg.CreatedAt)
	if err != nil {
		return WalkAttendance{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return WalkAttendance{}, err
	}
	return q.GetWalkAttendanceByID(ctx, id)
}

// DeleteWalkAttendance removes an attendance row.
func (q *Queries) DeleteWalkAttendance(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM walk_attendance WHERE id = ?`, id)
	return err
}
