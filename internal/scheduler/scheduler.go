// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs recurring background jobs: expiring offers
// past their end date and purging old audit events.
package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/store"
)

// auditRetention is how long audit events are kept before purging.
const auditRetention = 90 * 24 * time.Hour

// Scheduler handles recurring maintenance tasks.
type Scheduler struct {
	db     *sql.DB
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a new scheduler instance.
func New(db *sql.DB, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:     db,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers the jobs and begins the cron loop: expired-offer
// deactivation every minute, audit purge daily at 03:00.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", func() {
		if err := s.deactivateExpiredOffers(); err != nil {
			s.logger.Error("deactivating expired offers", "error", err)
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc("0 3 * * *", func() {
		if err := s.purgeOldAuditEvents(); err != nil {
			s.logger.Error("purging audit events", "error", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// deactivateExpiredOffers flips is_active off for offers whose window
// has closed, so the public offers page never shows stale promotions.
func (s *Scheduler) deactivateExpiredOffers() error {
	ctx := context.Background()
	queries := store.New(s.db)

	now := time.Now()
	offers, err := queries.ListExpiredActiveOffers(ctx, now)
	if err != nil {
		return err
	}

	if len(offers) == 0 {
		return nil
	}

	s.logger.Info("deactivating expired offers", "count", len(offers))

	for _, offer := range offers {
		if err := queries.SetOfferActive(ctx, offer.ID, false, now); err != nil {
			s.logger.Error("deactivating offer",
				"offer_id", offer.ID,
				"offer_title", offer.Title,
				"error", err,
			)
			continue
		}

		s.logAuditEvent(ctx, queries, "Offer expired and deactivated: "+offer.Title, map[string]any{
			"offer_id":    offer.ID,
			"offer_title": offer.Title,
			"ended_at":    offer.EndsAt.Time.Format(time.RFC3339),
		}, now)
	}

	return nil
}

// purgeOldAuditEvents removes audit rows past the retention window.
func (s *Scheduler) purgeOldAuditEvents() error {
	ctx := context.Background()
	queries := store.New(s.db)

	cutoff := time.Now().Add(-auditRetention)
	removed, err := queries.PurgeAuditEventsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		s.logger.Info("purged old audit events", "removed", removed, "cutoff", cutoff)
	}

	return nil
}

func (s *Scheduler) logAuditEvent(ctx context.Context, queries *store.Queries, message string, metadata map[string]any, now time.Time) {
	metadataJSON, _ := json.Marshal(metadata)

	err := queries.CreateAuditEvent(ctx, store.CreateAuditEventParams{
		Level:     model.EventLevelInfo,
		Category:  model.EventCategorySystem,
		Message:   message,
		UserID:    sql.NullInt64{}, // System action, no user
		Metadata:  string(metadataJSON),
		CreatedAt: now,
	})
	if err != nil {
		s.logger.Warn("logging scheduler audit event", "error", err)
	}
}
