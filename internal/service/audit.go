// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic over the store layer:
// audit logging, moderation, analytics, and photo competitions.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/store"
)

// AuditService writes audit trail entries.
type AuditService struct {
	queries *store.Queries
}

// NewAuditService creates a new AuditService.
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{
		queries: store.New(db),
	}
}

// Log creates a new audit event.
func (s *AuditService) Log(ctx context.Context, level, category, message string, userID sql.NullInt64, ipAddress string, metadata map[string]any) error {
	metadataJSON := "{}"
	if metadata != nil {
		if jsonBytes, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	err := s.queries.CreateAuditEvent(ctx, store.CreateAuditEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    userID,
		Metadata:  metadataJSON,
		IpAddress: ipAddress,
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("writing audit event", "error", err, "message", message)
		return err
	}

	return nil
}

// LogInfo logs an info-level audit event.
func (s *AuditService) LogInfo(ctx context.Context, category, message string, userID sql.NullInt64, ipAddress string, metadata map[string]any) error {
	return s.Log(ctx, model.EventLevelInfo, category, message, userID, ipAddress, metadata)
}

// LogWarning logs a warning-level audit event.
func (s *AuditService) LogWarning(ctx context.Context, category, message string, userID sql.NullInt64, ipAddress string, metadata map[string]any) error {
	return s.Log(ctx, model.EventLevelWarning, category, message, userID, ipAddress, metadata)
}

// LogError logs an error-level audit event.
func (s *AuditService) LogError(ctx context.Context, category, message string, userID sql.NullInt64, ipAddress string, metadata map[string]any) error {
	return s.Log(ctx, model.EventLevelError, category, message, userID, ipAddress, metadata)
}

// LogAuth logs an authentication event.
func (s *AuditService) LogAuth(ctx context.Context, level, message string, userID sql.NullInt64, ipAddress string, metadata map[string]any) error {
	return s.Log(ctx, level, model.EventCategoryAuth, message, userID, ipAddress, metadata)
}

// LogModeration logs a moderation event.
func (s *AuditService) LogModeration(ctx context.Context, level, message string, userID sql.NullInt64, ipAddress string, metadata map[string]any) error {
	return s.Log(ctx, level, model.EventCategoryModeration, message, userID, ipAddress, metadata)
}

// PurgeOldEvents removes audit events older than the given duration.
// Returns the number of rows removed.
func (s *AuditService) PurgeOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	return s.queries.PurgeAuditEventsBefore(ctx, cutoff)
}
