package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/store"
)

func TestDashboardStatsEmpty(t *testing.T) {
	db := testDB(t)
	svc := NewAnalyticsService(db)

	stats, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.TotalShops)
	assert.Zero(t, stats.PendingReviews)
	assert.Equal(t, [5]int64{}, stats.RatingHistogram)
	assert.Len(t, stats.WeeklyActivity, 7, "trend covers all 7 days even with no activity")
	assert.Zero(t, stats.TotalUsers, "seeding is separate from migration")
}

func TestDashboardStatsCounts(t *testing.T) {
	db := testDB(t)
	svc := NewAnalyticsService(db)
	ctx := context.Background()

	now := time.Now()
	createShop(t, db, "approved-one", model.StatusApproved, now)
	createShop(t, db, "approved-two", model.StatusApproved, now)
	createShop(t, db, "pending-one", model.StatusPending, now)
	createShop(t, db, "rejected-one", model.StatusRejected, now)

	stats, err := svc.DashboardStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalShops)
	assert.Equal(t, int64(2), stats.ApprovedShops)
	assert.Equal(t, int64(1), stats.PendingShops)
	assert.Equal(t, int64(1), stats.RejectedShops)
}

func TestDashboardRatingHistogramFillsGaps(t *testing.T) {
	db := testDB(t)
	svc := NewAnalyticsService(db)
	ctx := context.Background()

	shop := createShop(t, db, "rated-shop", model.StatusApproved, time.Now())
	q := store.New(db)

	for _, rating := range []int64{5, 5, 3} {
		_, err := q.CreateReview(ctx, store.CreateReviewParams{
			ShopID:     shop.ID,
			AuthorName: "A",
			Rating:     rating,
			Body:       "review",
			Status:     model.StatusApproved,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		})
		require.NoError(t, err)
	}
	// A pending review must not count
	createReview(t, db, shop.ID, model.StatusPending, time.Now())

	stats, err := svc.DashboardStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, [5]int64{0, 0, 1, 0, 2}, stats.RatingHistogram)
	assert.Equal(t, int64(1), stats.PendingReviews)
}

func TestDashboardTopShops(t *testing.T) {
	db := testDB(t)
	svc := NewAnalyticsService(db)
	ctx := context.Background()

	good := createShop(t, db, "good-shop", model.StatusApproved, time.Now())
	createShop(t, db, "unrated-shop", model.StatusApproved, time.Now())

	q := store.New(db)
	_, err := q.CreateReview(ctx, store.CreateReviewParams{
		ShopID:     good.ID,
		AuthorName: "A",
		Rating:     5,
		Body:       "great",
		Status:     model.StatusApproved,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	})
	require.NoError(t, err)

	stats, err := svc.DashboardStats(ctx)
	require.NoError(t, err)

	require.Len(t, stats.TopShops, 2)
	assert.Equal(t, "good-shop", stats.TopShops[0].Name)
	assert.Equal(t, 5.0, stats.TopShops[0].AvgRating)
	assert.Equal(t, "unrated-shop", stats.TopShops[1].Name)
	assert.Equal(t, 0.0, stats.TopShops[1].AvgRating, "shop with no reviews ranks with zero")
}

func TestWeeklyActivityGapFill(t *testing.T) {
	db := testDB(t)
	svc := NewAnalyticsService(db)
	ctx := context.Background()

	q := store.New(db)
	require.NoError(t, q.CreateAuditEvent(ctx, store.CreateAuditEventParams{
		Level:     model.EventLevelInfo,
		Category:  model.EventCategorySystem,
		Message:   "something happened",
		Metadata:  "{}",
		CreatedAt: time.Now(),
	}))

	stats, err := svc.DashboardStats(ctx)
	require.NoError(t, err)

	require.Len(t, stats.WeeklyActivity, 7)

	today := time.Now().Format("2006-01-02")
	last := stats.WeeklyActivity[6]
	assert.Equal(t, today, last.Day)
	assert.Equal(t, int64(1), last.Count)

	var total int64
	for _, point := range stats.WeeklyActivity {
		total += point.Count
	}
	assert.Equal(t, int64(1), total)
}

func TestFillHistogram(t *testing.T) {
	rows := []store.RatingCountRow{
		{Rating: 1, Count: 3},
		{Rating: 5, Count: 7},
		{Rating: 9, Count: 99}, // Out of range, ignored
	}
	assert.Equal(t, [5]int64{3, 0, 0, 0, 7}, fillHistogram(rows))
}
