// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/store"
)

// topShopsLimit is the size of the top-rated table on the dashboard.
const topShopsLimit = 5

// DailyPoint is one day in the weekly activity trend.
type DailyPoint struct {
	Day   string // YYYY-MM-DD
	Count int64
}

// DashboardStats aggregates every metric the analytics dashboard shows.
type DashboardStats struct {
	TotalShops     int64
	PendingShops   int64
	ApprovedShops  int64
	RejectedShops  int64
	PendingReviews int64
	TotalEvents    int64
	TotalUsers     int64

	CategoryCounts  []store.CategoryCountRow
	RatingHistogram [5]int64 // Index 0 is 1 star
	TopShops        []store.TopShopRow
	WeeklyActivity  []DailyPoint
}

// AnalyticsService computes the read-only dashboard metrics.
type AnalyticsService struct {
	queries *store.Queries
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(db *sql.DB) *AnalyticsService {
	return &AnalyticsService{
		queries: store.New(db),
	}
}

// DashboardStats runs one query per metric concurrently and combines
// the results once every query has finished. Any single failure fails
// the whole dashboard load.
func (s *AnalyticsService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.TotalShops, err = s.queries.CountShops(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingShops, err = s.queries.CountShopsByStatus(ctx, model.StatusPending)
		return err
	})
	g.Go(func() (err error) {
		stats.ApprovedShops, err = s.queries.CountShopsByStatus(ctx, model.StatusApproved)
		return err
	})
	g.Go(func() (err error) {
		stats.RejectedShops, err = s.queries.CountShopsByStatus(ctx, model.StatusRejected)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingReviews, err = s.queries.CountReviewsByStatus(ctx, model.StatusPending)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalEvents, err = s.queries.CountEvents(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.queries.CountUsers(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.CategoryCounts, err = s.queries.CountShopsPerCategory(ctx)
		return err
	})
	g.Go(func() error {
		rows, err := s.queries.CountReviewsPerRating(ctx)
		if err != nil {
			return err
		}
		stats.RatingHistogram = fillHistogram(rows)
		return nil
	})
	g.Go(func() (err error) {
		stats.TopShops, err = s.queries.ListTopRatedShops(ctx, topShopsLimit)
		return err
	})
	g.Go(func() error {
		points, err := s.weeklyActivity(ctx)
		if err != nil {
			return err
		}
		stats.WeeklyActivity = points
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading dashboard stats: %w", err)
	}

	return stats, nil
}

// fillHistogram maps sparse per-rating counts onto the fixed five
// buckets; ratings with no reviews show as zero.
func fillHistogram(rows []store.RatingCountRow) [5]int64 {
	var histogram [5]int64
	for _, row := range rows {
		if row.Rating >= 1 && row.Rating <= 5 {
			histogram[row.Rating-1] = row.Count
		}
	}
	return histogram
}

// weeklyActivity returns audit event counts for the trailing 7 days,
// gap-filled so every day appears even with zero activity.
func (s *AnalyticsService) weeklyActivity(ctx context.Context) ([]DailyPoint, error) {
	now := time.Now()
	since := now.AddDate(0, 0, -6).Truncate(24 * time.Hour)

	rows, err := s.queries.CountAuditEventsPerDay(ctx, since)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Day] = row.Count
	}

	points := make([]DailyPoint, 0, 7)
	for i := 0; i < 7; i++ {
		day := now.AddDate(0, 0, i-6).Format("2006-01-02")
		points = append(points, DailyPoint{Day: day, Count: counts[day]})
	}

	return points, nil
}
