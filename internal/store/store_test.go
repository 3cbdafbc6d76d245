package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "whitshop-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

func mustCreateShop(t *testing.T, q *Queries, name, slug, status string) Shop {
	t.Helper()
	now := time.Now()
	shop, err := q.CreateShop(context.Background(), CreateShopParams{
		Name:      name,
		Slug:      slug,
		Status:    status,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateShop: %v", err)
	}
	return shop
}

func TestCreateUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	user, err := q.CreateUser(ctx, CreateUserParams{
		Email:        "test@example.com",
		PasswordHash: "hashed-password",
		Role:         "moderator",
		Name:         "Test User",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if user.ID == 0 {
		t.Error("user.ID should not be 0")
	}
	if user.Email != "test@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "test@example.com")
	}
	if user.Role != "moderator" {
		t.Errorf("Role = %q, want %q", user.Role, "moderator")
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	_, err := q.GetUserByEmail(ctx, "nonexistent@example.com")
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	created, err := q.CreateUser(ctx, CreateUserParams{
		Email:        "delete@example.com",
		PasswordHash: "hash",
		Role:         "user",
		Name:         "Delete Me",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := q.DeleteUser(ctx, created.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	_, err = q.GetUserByID(ctx, created.ID)
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestSeed(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	// First seed should create admin
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	admin, err := q.GetUserByEmail(ctx, DefaultAdminEmail)
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if admin.Role != "admin" {
		t.Errorf("Role = %q, want admin", admin.Role)
	}

	// Second seed should skip (no error, no duplicate)
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Second Seed: %v", err)
	}

	count, err := q.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 (seed should skip if exists)", count)
	}
}

// Category Tests

func TestCreateCategory(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	cat, err := q.CreateCategory(ctx, CreateCategoryParams{
		Name:      "Food & Drink",
		Slug:      "food-drink",
		SortOrder: 1,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	if cat.ID == 0 {
		t.Error("cat.ID should not be 0")
	}
	if cat.Slug != "food-drink" {
		t.Errorf("Slug = %q, want %q", cat.Slug, "food-drink")
	}
}

func TestListCategoriesOrder(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	for i, name := range []string{"Third", "First", "Second"} {
		order := []int64{3, 1, 2}[i]
		_, err := q.CreateCategory(ctx, CreateCategoryParams{
			Name:      name,
			Slug:      "cat-" + name,
			SortOrder: order,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("CreateCategory: %v", err)
		}
	}

	cats, err := q.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 3 {
		t.Fatalf("len(cats) = %d, want 3", len(cats))
	}
	if cats[0].Name != "First" || cats[1].Name != "Second" || cats[2].Name != "Third" {
		t.Errorf("order = %q, %q, %q; want First, Second, Third",
			cats[0].Name, cats[1].Name, cats[2].Name)
	}
}

func TestMaxCategorySortOrder(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	max, err := q.MaxCategorySortOrder(ctx)
	if err != nil {
		t.Fatalf("MaxCategorySortOrder: %v", err)
	}
	if max != 0 {
		t.Errorf("max = %d, want 0 for empty table", max)
	}

	now := time.Now()
	_, err = q.CreateCategory(ctx, CreateCategoryParams{
		Name: "One", Slug: "one", SortOrder: 7, IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	max, err = q.MaxCategorySortOrder(ctx)
	if err != nil {
		t.Fatalf("MaxCategorySortOrder: %v", err)
	}
	if max != 7 {
		t.Errorf("max = %d, want 7", max)
	}
}

func TestCountCategoriesBySlug(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	cat, err := q.CreateCategory(ctx, CreateCategoryParams{
		Name: "Taken", Slug: "taken", SortOrder: 1, IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	// Another row wanting the same slug collides
	count, err := q.CountCategoriesBySlug(ctx, "taken", 0)
	if err != nil {
		t.Fatalf("CountCategoriesBySlug: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	// The row itself is excluded when editing
	count, err = q.CountCategoriesBySlug(ctx, "taken", cat.ID)
	if err != nil {
		t.Fatalf("CountCategoriesBySlug: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 when excluding own id", count)
	}
}

// Shop Tests

func TestShopStatusLifecycle(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	shop := mustCreateShop(t, q, "Oyster Stores", "oyster-stores", "pending")

	visible, err := q.ListVisibleShops(ctx)
	if err != nil {
		t.Fatalf("ListVisibleShops: %v", err)
	}
	if len(visible) != 0 {
		t.Errorf("pending shop should not be visible, got %d", len(visible))
	}

	if err := q.UpdateShopStatus(ctx, shop.ID, "approved", time.Now()); err != nil {
		t.Fatalf("UpdateShopStatus: %v", err)
	}

	visible, err = q.ListVisibleShops(ctx)
	if err != nil {
		t.Fatalf("ListVisibleShops: %v", err)
	}
	if len(visible) != 1 {
		t.Fatalf("len(visible) = %d, want 1", len(visible))
	}
	if visible[0].Status != "approved" {
		t.Errorf("Status = %q, want approved", visible[0].Status)
	}
}

func TestDeleteShopCascadesReviews(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	shop := mustCreateShop(t, q, "Beach Cafe", "beach-cafe", "approved")

	now := time.Now()
	_, err := q.CreateReview(ctx, CreateReviewParams{
		ShopID:     shop.ID,
		AuthorName: "Alex",
		Rating:     5,
		Body:       "Lovely",
		Status:     "approved",
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}

	if err := q.DeleteShop(ctx, shop.ID); err != nil {
		t.Fatalf("DeleteShop: %v", err)
	}

	count, err := q.CountReviewsByStatus(ctx, "approved")
	if err != nil {
		t.Fatalf("CountReviewsByStatus: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 after cascade", count)
	}
}

// Review Tests

func TestReviewModerationQueries(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	shop := mustCreateShop(t, q, "Harbour Bakery", "harbour-bakery", "approved")

	now := time.Now()
	review, err := q.CreateReview(ctx, CreateReviewParams{
		ShopID:      shop.ID,
		AuthorName:  "Sam",
		Rating:      4,
		Body:        "Great sourdough",
		Status:      "pending",
		CountryCode: "GB",
		DeviceType:  "mobile",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}

	pending, err := q.ListReviewsByStatus(ctx, "pending")
	if err != nil {
		t.Fatalf("ListReviewsByStatus: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("len(pending) = %d, want 1", len(pending))
	}
	if pending[0].CountryCode != "GB" || pending[0].DeviceType != "mobile" {
		t.Errorf("context = %q/%q, want GB/mobile", pending[0].CountryCode, pending[0].DeviceType)
	}

	if err := q.UpdateReviewStatus(ctx, review.ID, "approved", time.Now()); err != nil {
		t.Fatalf("UpdateReviewStatus: %v", err)
	}

	approved, err := q.ListApprovedReviewsForShop(ctx, shop.ID)
	if err != nil {
		t.Fatalf("ListApprovedReviewsForShop: %v", err)
	}
	if len(approved) != 1 {
		t.Errorf("len(approved) = %d, want 1", len(approved))
	}
}

// Stats Tests

func TestCountShopsPerCategory(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	cat, err := q.CreateCategory(ctx, CreateCategoryParams{
		Name: "Food", Slug: "food", SortOrder: 1, IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	empty, err := q.CreateCategory(ctx, CreateCategoryParams{
		Name: "Empty", Slug: "empty", SortOrder: 2, IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	shop, err := q.CreateShop(ctx, CreateShopParams{
		Name:       "Fish Bar",
		Slug:       "fish-bar",
		CategoryID: sql.NullInt64{Int64: cat.ID, Valid: true},
		Status:     "approved",
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateShop: %v", err)
	}
	_ = shop

	rows, err := q.CountShopsPerCategory(ctx)
	if err != nil {
		t.Fatalf("CountShopsPerCategory: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].Name != "Food" || rows[0].Count != 1 {
		t.Errorf("rows[0] = %q/%d, want Food/1", rows[0].Name, rows[0].Count)
	}
	if rows[1].Name != empty.Name || rows[1].Count != 0 {
		t.Errorf("rows[1] = %q/%d, want Empty/0", rows[1].Name, rows[1].Count)
	}
}

func TestListTopRatedShops_NoReviewsRankZero(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	rated := mustCreateShop(t, q, "Rated", "rated", "approved")
	mustCreateShop(t, q, "Unrated", "unrated", "approved")

	now := time.Now()
	for _, rating := range []int64{4, 5} {
		_, err := q.CreateReview(ctx, CreateReviewParams{
			ShopID:     rated.ID,
			AuthorName: "R",
			Rating:     rating,
			Status:     "approved",
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			t.Fatalf("CreateReview: %v", err)
		}
	}

	top, err := q.ListTopRatedShops(ctx, 10)
	if err != nil {
		t.Fatalf("ListTopRatedShops: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len(top) = %d, want 2", len(top))
	}
	if top[0].Name != "Rated" || top[0].AvgRating != 4.5 {
		t.Errorf("top[0] = %q/%.1f, want Rated/4.5", top[0].Name, top[0].AvgRating)
	}
	if top[1].Name != "Unrated" || top[1].AvgRating != 0 {
		t.Errorf("top[1] = %q/%.1f, want Unrated/0.0", top[1].Name, top[1].AvgRating)
	}
}

func TestCountReviewsPerRating_OnlyApproved(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	shop := mustCreateShop(t, q, "Shop", "shop", "approved")

	now := time.Now()
	for _, tc := range []struct {
		rating int64
		status string
	}{
		{5, "approved"}, {5, "approved"}, {3, "approved"}, {1, "pending"},
	} {
		_, err := q.CreateReview(ctx, CreateReviewParams{
			ShopID: shop.ID, AuthorName: "X", Rating: tc.rating, Status: tc.status,
			CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("CreateReview: %v", err)
		}
	}

	rows, err := q.CountReviewsPerRating(ctx)
	if err != nil {
		t.Fatalf("CountReviewsPerRating: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2 (pending excluded)", len(rows))
	}
	if rows[0].Rating != 3 || rows[0].Count != 1 {
		t.Errorf("rows[0] = %d/%d, want 3/1", rows[0].Rating, rows[0].Count)
	}
	if rows[1].Rating != 5 || rows[1].Count != 2 {
		t.Errorf("rows[1] = %d/%d, want 5/2", rows[1].Rating, rows[1].Count)
	}
}

// Config Tests

func TestSetConfigValueUpserts(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	// Migration seeds site_name
	value, err := q.GetConfigValue(ctx, "site_name")
	if err != nil {
		t.Fatalf("GetConfigValue: %v", err)
	}
	if value != "whitstable.shop" {
		t.Errorf("value = %q, want whitstable.shop", value)
	}

	if err := q.SetConfigValue(ctx, "site_name", "Whitstable Shops", time.Now()); err != nil {
		t.Fatalf("SetConfigValue: %v", err)
	}

	value, err = q.GetConfigValue(ctx, "site_name")
	if err != nil {
		t.Fatalf("GetConfigValue: %v", err)
	}
	if value != "Whitstable Shops" {
		t.Errorf("value = %q, want Whitstable Shops", value)
	}
}

// Audit Tests

func TestAuditEventsFilterAndPurge(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	old := now.AddDate(0, 0, -100)
	for i, e := range []CreateAuditEventParams{
		{Level: "info", Category: "auth", Message: "login", CreatedAt: now},
		{Level: "warn", Category: "moderation", Message: "rejected", CreatedAt: now},
		{Level: "info", Category: "auth", Message: "old login", CreatedAt: old},
	} {
		e.Metadata = "{}"
		if err := q.CreateAuditEvent(ctx, e); err != nil {
			t.Fatalf("CreateAuditEvent %d: %v", i, err)
		}
	}

	events, err := q.ListAuditEvents(ctx, ListAuditEventsParams{Category: "auth", Limit: 10})
	if err != nil {
		t.Fatalf("ListAuditEvents: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("len(events) = %d, want 2", len(events))
	}

	purged, err := q.PurgeAuditEventsBefore(ctx, now.AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("PurgeAuditEventsBefore: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
}

// Offer Tests

func TestListExpiredActiveOffers(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	_, err := q.CreateOffer(ctx, CreateOfferParams{
		Title:     "Expired",
		Slug:      "expired",
		EndsAt:    sql.NullTime{Time: now.AddDate(0, 0, -1), Valid: true},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}
	_, err = q.CreateOffer(ctx, CreateOfferParams{
		Title:     "Open Ended",
		Slug:      "open-ended",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}

	expired, err := q.ListExpiredActiveOffers(ctx, now)
	if err != nil {
		t.Fatalf("ListExpiredActiveOffers: %v", err)
	}
	if len(expired) != 1 {
		t.Fatalf("len(expired) = %d, want 1", len(expired))
	}
	if expired[0].Title != "Expired" {
		t.Errorf("Title = %q, want Expired", expired[0].Title)
	}

	current, err := q.ListCurrentOffers(ctx, now)
	if err != nil {
		t.Fatalf("ListCurrentOffers: %v", err)
	}
	if len(current) != 1 || current[0].Title != "Open Ended" {
		t.Errorf("current = %v, want only Open Ended", current)
	}
}

// Walk Tests

func TestWalkAttendance(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	walk, err := q.CreateDogWalk(ctx, CreateDogWalkParams{
		Title:        "Sunday Stroll",
		WalkDate:     now.AddDate(0, 0, 7),
		MeetingPoint: "The Harbour",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateDogWalk: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, err := q.CreateWalkAttendance(ctx, CreateWalkAttendanceParams{
			WalkID:       walk.ID,
			AttendeeName: fmt.Sprintf("Walker %d", i),
			DogName:      fmt.Sprintf("Dog %d", i),
			CreatedAt:    now.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("CreateWalkAttendance: %v", err)
		}
	}

	count, err := q.CountWalkAttendance(ctx, walk.ID)
	if err != nil {
		t.Fatalf("CountWalkAttendance: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	// Deleting the walk cascades attendance
	if err := q.DeleteDogWalk(ctx, walk.ID); err != nil {
		t.Fatalf("DeleteDogWalk: %v", err)
	}
	count, err = q.CountWalkAttendance(ctx, walk.ID)
	if err != nil {
		t.Fatalf("CountWalkAttendance: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 after cascade", count)
	}
}
