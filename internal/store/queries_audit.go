// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const auditEventColumns = `id, level, category, message, user_id, metadata, ip_address, created_at`

func scanAuditEvent(row interface{ Scan(...any) error }) (AuditEvent, error) {
	var e AuditEvent
	err := row.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata,
		&e.IpAddress, &e.CreatedAt)
	return e, err
}

func (q *Queries) collectAuditEvents(ctx context.Context, query string, args ...any) ([]AuditEvent, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		e, err := scanAuditEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CreateAuditEventParams holds fields for CreateAuditEvent.
type CreateAuditEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	IpAddress string
	CreatedAt time.Time
}

// CreateAuditEvent appends an audit log entry.
func (q *Queries) CreateAuditEvent(ctx context.Context, arg CreateAuditEventParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO audit_events (level, category, message, user_id, metadata, ip_address, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata, arg.IpAddress, arg.CreatedAt)
	return err
}

// ListAuditEventsParams filters ListAuditEvents. Empty Level or Category
// matches everything.
type ListAuditEventsParams struct {
	Level    string
	Category string
	Limit    int64
	Offset   int64
}

// ListAuditEvents returns audit entries newest first, optionally filtered
// by level and category.
func (q *Queries) ListAuditEvents(ctx context.Context, arg ListAuditEventsParams) ([]AuditEvent, error) {
	return q.collectAuditEvents(ctx,
		`SELECT `+auditEventColumns+` FROM audit_events
		 WHERE (? = '' OR level = ?) AND (? = '' OR category = ?)
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		arg.Level, arg.Level, arg.Category, arg.Category, arg.Limit, arg.Offset)
}

// CountAuditEvents counts audit entries matching the same filters as
// ListAuditEvents.
func (q *Queries) CountAuditEvents(ctx context.Context, level, category string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_events
		 WHERE (? = '' OR level = ?) AND (? = '' OR category = ?)`,
		level, level, category, category).Scan(&count)
	return count, err
}

// PurgeAuditEventsBefore deletes audit entries older than the cutoff and
// reports how many rows went.
func (q *Queries) PurgeAuditEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM audit_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
