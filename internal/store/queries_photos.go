// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const competitionColumns = `id, title, slug, theme, starts_at, ends_at, is_active, created_at, updated_at`

func scanCompetition(row interface{ Scan(...any) error }) (Competition, error) {
	var c Competition
	err := row.Scan(&c.ID, &c.Title, &c.Slug, &c.Theme, &c.StartsAt, &c.EndsAt,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *Queries) collectCompetitions(ctx context.Context, query string, args ...any) ([]Competition, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comps []Competition
	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return comps, rows.Err()
}

// GetCompetitionByID fetches a competition by primary key.
func (q *Queries) GetCompetitionByID(ctx context.Context, id int64) (Competition, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+competitionColumns+` FROM competitions WHERE id = ?`, id)
	return scanCompetition(row)
}

// GetCompetitionBySlug fetches a competition by slug.
func (q *Queries) GetCompetitionBySlug(ctx context.Context, slug string) (Competition, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+competitionColumns+` FROM competitions WHERE slug = ?`, slug)
	return scanCompetition(row)
}

// ListCompetitions returns all competitions, newest first.
func (q *Queries) ListCompetitions(ctx context.Context) ([]Competition, error) {
	return q.collectCompetitions(ctx, `SELECT `+competitionColumns+` FROM competitions ORDER BY created_at DESC`)
}

// ListActiveCompetitions returns active competitions, newest first.
func (q *Queries) ListActiveCompetitions(ctx context.Context) ([]Competition, error) {
	return q.collectCompetitions(ctx,
		`SELECT `+competitionColumns+` FROM competitions WHERE is_active = 1 ORDER BY created_at DESC`)
}

// CountCompetitionsBySlug counts competitions holding the given slug,
// excluding the given id (0 excludes nothing).
func (q *Queries) CountCompetitionsBySlug(ctx context.Context, slug string, excludeID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM competitions WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&count)
	return count, err
}

// CreateCompetitionParams holds fields for CreateCompetition.
type CreateCompetitionParams struct {
	Title     string
	Slug      string
	Theme     string
	StartsAt  sql.NullTime
	EndsAt    sql.NullTime
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateCompetition inserts a competition and returns the stored row.
func (q *Queries) CreateCompetition(ctx context.Context, arg CreateCompetitionParams) (Competition, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO competitions (title, slug, theme, starts_at, ends_at, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Slug, arg.Theme, arg.StartsAt, arg.EndsAt, arg.IsActive,
		arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Competition{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Competition{}, err
	}
	return q.GetCompetitionByID(ctx, id)
}

// UpdateCompetitionParams holds fields for UpdateCompetition.
type UpdateCompetitionParams struct {
	ID        int64
	Title     string
	Slug      string
	Theme     string
	StartsAt  sql.NullTime
	EndsAt    sql.NullTime
	IsActive  bool
	UpdatedAt time.Time
}

// UpdateCompetition updates editable fields, scoped by id.
func (q *Queries) UpdateCompetition(ctx context.Context, arg UpdateCompetitionParams) (Competition, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE competitions SET title = ?, slug = ?, theme = ?, starts_at = ?, ends_at = ?,
		 is_active = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Title, arg.Slug, arg.Theme, arg.StartsAt, arg.EndsAt, arg.IsActive, arg.UpdatedAt, arg.ID)
	if err != nil {
		return Competition{}, err
	}
	return q.GetCompetitionByID(ctx, arg.ID)
}

// SetCompetitionActive flips the is_active flag.
func (q *Queries) SetCompetitionActive(ctx context.Context, id int64, active bool, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE competitions SET is_active = ?, updated_at = ? WHERE id = ?`, active, updatedAt, id)
	return err
}

// DeleteCompetition removes a competition; its entries cascade.
func (q *Queries) DeleteCompetition(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM competitions WHERE id = ?`, id)
	return err
}

const photoEntryColumns = `id, competition_id, entrant_name, caption, file_path, thumb_path, taken_at, status, created_at`

func scanPhotoEntry(row interface{ Scan(...any) error }) (PhotoEntry, error) {
	var p PhotoEntry
	err := row.Scan(&p.ID, &p.CompetitionID, &p.EntrantName, &p.Caption, &p.FilePath,
		&p.ThumbPath, &p.TakenAt, &p.Status, &p.CreatedAt)
	return p, err
}

func (q *Queries) collectPhotoEntries(ctx context.Context, query string, args ...any) ([]PhotoEntry, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []PhotoEntry
	for rows.Next() {
		p, err := scanPhotoEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, p)
	}
	return entries, rows.Err()
}

// GetPhotoEntryByID fetches a photo entry by primary key.
func (q *Queries) GetPhotoEntryByID(ctx context.Context, id int64) (PhotoEntry, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+photoEntryColumns+` FROM photo_entries WHERE id = ?`, id)
	return scanPhotoEntry(row)
}

// ListPhotoEntriesForCompetition returns a competition's entries, newest first.
func (q *Queries) ListPhotoEntriesForCompetition(ctx context.Context, competitionID int64) ([]PhotoEntry, error) {
	return q.collectPhotoEntries(ctx,
		`SELECT `+photoEntryColumns+` FROM photo_entries
		 WHERE competition_id = ? ORDER BY created_at DESC`, competitionID)
}

// ListApprovedPhotoEntries returns a competition's approved entries for
// the public gallery, newest first.
func (q *Queries) ListApprovedPhotoEntries(ctx context.Context, competitionID int64) ([]PhotoEntry, error) {
	return q.collectPhotoEntries(ctx,
		`SELECT `+photoEntryColumns+` FROM photo_entries
		 WHERE competition_id = ? AND status = 'approved' ORDER BY created_at DESC`, competitionID)
}

// ListPhotoEntriesByStatus returns entries with the given status across
// all competitions, newest first.
func (q *Queries) ListPhotoEntriesByStatus(ctx context.Context, status string) ([]PhotoEntry, error) {
	return q.collectPhotoEntries(ctx,
		`SELECT `+photoEntryColumns+` FROM photo_entries WHERE status = ? ORDER BY created_at DESC`, status)
}

// CountPhotoEntriesByStatus counts entries with the given status.
func (q *Queries) CountPhotoEntriesByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM photo_entries WHERE status = ?`, status).Scan(&count)
	return count, err
}

// CreatePhotoEntryParams holds fields for CreatePhotoEntry.
type CreatePhotoEntryParams struct {
	CompetitionID int64
	EntrantName   string
	Caption       string
	FilePath      string
	ThumbPath     string
	TakenAt       sql.NullTime
	Status        string
	CreatedAt     time.Time
}

// CreatePhotoEntry inserts a photo entry and returns the stored row.
func (q *Queries) CreatePhotoEntry(ctx context.Context, arg CreatePhotoEntryParams) (PhotoEntry, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO photo_entries (competition_id, entrant_name, caption, file_path, thumb_path, taken_at, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.CompetitionID, arg.EntrantName, arg.Caption, arg.FilePath, arg.ThumbPath,
		arg.TakenAt, arg.Status, arg.CreatedAt)
	if err != nil {
		return PhotoEntry{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return PhotoEntry{}, err
	}
	return q.GetPhotoEntryByID(ctx, id)
}

// UpdatePhotoEntryStatus moves an entry through the moderation lifecycle.
func (q *Queries) UpdatePhotoEntryStatus(ctx context.Context, id int64, status string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE photo_entries SET status = ? WHERE id = ?`, status, id)
	return err
}

// DeletePhotoEntry removes a photo entry row. Files on disk are the
// caller's responsibility.
func (q *Queries) DeletePhotoEntry(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM photo_entries WHERE id = ?`, id)
	return err
}
