// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const campaignColumns = `id, charity_id, name, slug, description, goal_pence, starts_at, ends_at, is_active, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (Campaign, error) {
	var c Campaign
	err := row.Scan(&c.ID, &c.CharityID, &c.Name, &c.Slug, &c.Description, &c.GoalPence,
		&c.StartsAt, &c.EndsAt, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *Queries) collectCampaigns(ctx context.Context, query string, args ...any) ([]Campaign, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// GetCampaignByID fetches a campaign by primary key.
func (q *Queries) GetCampaignByID(ctx context.Context, id int64) (Campaign, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id)
	return scanCampaign(row)
}

// ListCampaigns returns all campaigns, newest first.
func (q *Queries) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	return q.collectCampaigns(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC`)
}

// ListActiveCampaigns returns active campaigns whose window covers now.
func (q *Queries) ListActiveCampaigns(ctx context.Context, now time.Time) ([]Campaign, error) {
	return q.collectCampaigns(ctx,
		`SELECT `+campaignColumns+` FROM campaigns
		 WHERE is_active = 1
		   AND (starts_at IS NULL OR starts_at <= ?)
		   AND (ends_at IS NULL OR ends_at >= ?)
		 ORDER BY created_at DESC`, now, now)
}

// ListCampaignsForCharity returns a charity's campaigns, newest first.
func (q *Queries) ListCampaignsForCharity(ctx context.Context, charityID int64) ([]Campaign, error) {
	return q.collectCampaigns(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE charity_id = ? ORDER BY created_at DESC`, charityID)
}

// CountCampaigns returns the total number of campaigns.
func (q *Queries) CountCampaigns(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`).Scan(&count)
	return count, err
}

// CountCampaignsBySlug counts campaigns holding the given slug, excluding
// the given id (0 excludes nothing).
func (q *Queries) CountCampaignsBySlug(ctx context.Context, slug string, excludeID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM campaigns WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&count)
	return count, err
}

// CreateCampaignParams holds fields for CreateCampaign.
type CreateCampaignParams struct {
	CharityID   sql.NullInt64
	Name        string
	Slug        string
	Description string
	GoalPence   sql.NullInt64
	StartsAt    sql.NullTime
	EndsAt      sql.NullTime
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateCampaign inserts a campaign and returns the stored row.
func (q *Queries) CreateCampaign(ctx context.Context, arg CreateCampaignParams) (Campaign, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO campaigns (charity_id, name, slug, description, goal_pence, starts_at, ends_at, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.CharityID, arg.Name, arg.Slug, arg.Description, arg.GoalPence, arg.StartsAt,
		arg.EndsAt, arg.IsActive, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Campaign{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Campaign{}, err
	}
	return q.GetCampaignByID(ctx, id)
}

// UpdateCampaignParams holds fields for UpdateCampaign.
type UpdateCampaignParams struct {
	ID          int64
	CharityID   sql.NullInt64
	Name        string
	Slug        string
	Description string
	GoalPence   sql.NullInt64
	StartsAt    sql.NullTime
	EndsAt      sql.NullTime
	IsActive    bool
	UpdatedAt   time.Time
}

// UpdateCampaign updates editable fields, scoped by id.
func (q *Queries) UpdateCampaign(ctx context.Context, arg UpdateCampaignParams) (Campaign, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE campaigns SET charity_id = ?, name = ?, slug = ?, description = ?, goal_pence = ?,
		 starts_at = ?, ends_at = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		arg.CharityID, arg.Name, arg.Slug, arg.Description, arg.GoalPence, arg.StartsAt,
		arg.EndsAt, arg.IsActive, arg.UpdatedAt, arg.ID)
	if err != nil {
		return Campaign{}, err
	}
	return q.GetCampaignByID(ctx, arg.ID)
}

// SetCampaignActive flips the is_active flag.
func (q *Queries) SetCampaignActive(ctx context.Context, id int64, active bool, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE campaigns SET is_active = ?, updated_at = ? WHERE id = ?`, active, updatedAt, id)
	return err
}

// DeleteCampaign removes a campaign.
func (q *Queries) DeleteCampaign(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id)
	return err
}
