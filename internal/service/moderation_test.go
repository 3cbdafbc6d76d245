package service

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "whitshop-service-test-*.db")
	require.NoError(t, err)
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))

	t.Cleanup(func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	})

	return db
}

func createShop(t *testing.T, db *sql.DB, name, status string, createdAt time.Time) store.Shop {
	t.Helper()
	q := store.New(db)
	shop, err := q.CreateShop(context.Background(), store.CreateShopParams{
		Name:      name,
		Slug:      name,
		Status:    status,
		IsActive:  true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	require.NoError(t, err)
	return shop
}

func createReview(t *testing.T, db *sql.DB, shopID int64, status string, createdAt time.Time) store.Review {
	t.Helper()
	q := store.New(db)
	review, err := q.CreateReview(context.Background(), store.CreateReviewParams{
		ShopID:     shopID,
		AuthorName: "Reviewer",
		Rating:     4,
		Body:       "Lovely little place, great service.",
		Status:     status,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	})
	require.NoError(t, err)
	return review
}

func TestQueueMergesAndSortsByCreatedAtDesc(t *testing.T) {
	db := testDB(t)
	svc := NewModerationService(db, nil)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	approved := createShop(t, db, "approved-shop", model.StatusApproved, base)

	// Interleave shops and reviews across time
	createShop(t, db, "oldest-shop", model.StatusPending, base.Add(1*time.Minute))
	createReview(t, db, approved.ID, model.StatusPending, base.Add(2*time.Minute))
	createShop(t, db, "newest-shop", model.StatusPending, base.Add(3*time.Minute))

	items, err := svc.Queue(ctx, "")
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, model.ContentTypeShop, items[0].Type)
	assert.Equal(t, "newest-shop", items[0].Title)
	assert.Equal(t, model.ContentTypeReview, items[1].Type)
	assert.Equal(t, model.ContentTypeShop, items[2].Type)
	assert.Equal(t, "oldest-shop", items[2].Title)

	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].CreatedAt.After(items[i-1].CreatedAt),
			"queue must be ordered newest first")
	}
}

func TestQueueTypeFilter(t *testing.T) {
	db := testDB(t)
	svc := NewModerationService(db, nil)
	ctx := context.Background()

	now := time.Now()
	approved := createShop(t, db, "approved-shop", model.StatusApproved, now)
	createShop(t, db, "pending-shop", model.StatusPending, now)
	createReview(t, db, approved.ID, model.StatusPending, now)

	shops, err := svc.Queue(ctx, model.ContentTypeShop)
	require.NoError(t, err)
	require.Len(t, shops, 1)
	assert.Equal(t, model.ContentTypeShop, shops[0].Type)

	reviews, err := svc.Queue(ctx, model.ContentTypeReview)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, model.ContentTypeReview, reviews[0].Type)
}

func TestActApprovesShop(t *testing.T) {
	db := testDB(t)
	svc := NewModerationService(db, nil)
	ctx := context.Background()

	shop := createShop(t, db, "new-shop", model.StatusPending, time.Now())

	require.NoError(t, svc.Act(ctx, model.ActionApprove, model.ContentTypeShop, shop.ID))

	updated, err := store.New(db).GetShopByID(ctx, shop.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, updated.Status)

	items, err := svc.Queue(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, items, "approved item should leave the queue")
}

func TestActRejectsReview(t *testing.T) {
	db := testDB(t)
	svc := NewModerationService(db, nil)
	ctx := context.Background()

	shop := createShop(t, db, "a-shop", model.StatusApproved, time.Now())
	review := createReview(t, db, shop.ID, model.StatusPending, time.Now())

	require.NoError(t, svc.Act(ctx, model.ActionReject, model.ContentTypeReview, review.ID))

	updated, err := store.New(db).GetReviewByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, updated.Status)
}

func TestActValidation(t *testing.T) {
	db := testDB(t)
	svc := NewModerationService(db, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Act(ctx, "promote", model.ContentTypeShop, 1), ErrInvalidInput)
	assert.ErrorIs(t, svc.Act(ctx, model.ActionApprove, "widget", 1), ErrInvalidInput)
	assert.ErrorIs(t, svc.Act(ctx, model.ActionApprove, model.ContentTypeShop, 99999), ErrNotFound)
}

func TestBulkActCoversBothTypes(t *testing.T) {
	db := testDB(t)
	svc := NewModerationService(db, nil)
	ctx := context.Background()

	approved := createShop(t, db, "approved-shop", model.StatusApproved, time.Now())
	shop := createShop(t, db, "pending-shop", model.StatusPending, time.Now())
	review := createReview(t, db, approved.ID, model.StatusPending, time.Now())

	err := svc.BulkAct(ctx, model.ActionApprove, []model.ModerationRef{
		{ID: shop.ID, Type: model.ContentTypeShop},
		{ID: review.ID, Type: model.ContentTypeReview},
	})
	require.NoError(t, err)

	items, err := svc.Queue(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, items, "both items should leave the queue after bulk approve")
}

func TestBulkActAllOrNothing(t *testing.T) {
	db := testDB(t)
	svc := NewModerationService(db, nil)
	ctx := context.Background()

	shop := createShop(t, db, "pending-shop", model.StatusPending, time.Now())

	err := svc.BulkAct(ctx, model.ActionApprove, []model.ModerationRef{
		{ID: shop.ID, Type: model.ContentTypeShop},
		{ID: 99999, Type: model.ContentTypeReview}, // Does not exist
	})
	assert.ErrorIs(t, err, ErrNotFound)

	// The valid item must be untouched after rollback
	unchanged, err := store.New(db).GetShopByID(ctx, shop.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, unchanged.Status)
}

func TestBulkActValidation(t *testing.T) {
	db := testDB(t)
	svc := NewModerationService(db, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.BulkAct(ctx, model.ActionApprove, nil), ErrInvalidInput)
	assert.ErrorIs(t, svc.BulkAct(ctx, "invalid", []model.ModerationRef{{ID: 1, Type: model.ContentTypeShop}}), ErrInvalidInput)
}

func TestSubmitReview(t *testing.T) {
	db := testDB(t)
	svc := NewModerationService(db, nil)
	ctx := context.Background()

	shop := createShop(t, db, "oyster-shack", model.StatusApproved, time.Now())

	review, err := svc.SubmitReview(ctx, SubmitReviewParams{
		ShopID:     shop.ID,
		AuthorName: "Sam",
		Rating:     5,
		Body:       "<script>alert(1)</script>Best oysters in town!",
		IPAddress:  "192.168.1.10",
		UserAgent:  "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148 Safari/604.1",
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, review.Status)
	assert.Equal(t, "Best oysters in town!", review.Body, "HTML should be stripped")
	assert.Equal(t, "mobile", review.DeviceType)
}

func TestSubmitReviewValidation(t *testing.T) {
	db := testDB(t)
	svc := NewModerationService(db, nil)
	ctx := context.Background()

	shop := createShop(t, db, "a-shop", model.StatusApproved, time.Now())
	pending := createShop(t, db, "pending-shop", model.StatusPending, time.Now())

	tests := []struct {
		name    string
		params  SubmitReviewParams
		wantErr error
	}{
		{
			name:    "rating too low",
			params:  SubmitReviewParams{ShopID: shop.ID, AuthorName: "A", Rating: 0, Body: "x"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "rating too high",
			params:  SubmitReviewParams{ShopID: shop.ID, AuthorName: "A", Rating: 6, Body: "x"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "empty body",
			params:  SubmitReviewParams{ShopID: shop.ID, AuthorName: "A", Rating: 3, Body: "  "},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "missing shop",
			params:  SubmitReviewParams{ShopID: 99999, AuthorName: "A", Rating: 3, Body: "x"},
			wantErr: ErrNotFound,
		},
		{
			name:    "shop not visible",
			params:  SubmitReviewParams{ShopID: pending.ID, AuthorName: "A", Rating: 3, Body: "x"},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitReview(ctx, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 80, "short"},
		{"word one two three", 8, "word one…"},
		{"  padded  ", 80, "padded"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, excerpt(tt.in, tt.max))
	}
}
