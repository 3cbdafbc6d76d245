package scheduler

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
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

	f, err := os.CreateTemp("", "whitshop-scheduler-test-*.db")
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

func testScheduler(t *testing.T) (*Scheduler, *sql.DB) {
	t.Helper()
	db := testDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(db, logger), db
}

func createOffer(t *testing.T, db *sql.DB, title string, endsAt sql.NullTime, active bool) store.Offer {
	t.Helper()
	now := time.Now()
	offer, err := store.New(db).CreateOffer(context.Background(), store.CreateOfferParams{
		Title:     title,
		Slug:      title,
		EndsAt:    endsAt,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return offer
}

func TestDeactivateExpiredOffers(t *testing.T) {
	s, db := testScheduler(t)
	ctx := context.Background()

	past := sql.NullTime{Time: time.Now().Add(-time.Hour), Valid: true}
	future := sql.NullTime{Time: time.Now().Add(time.Hour), Valid: true}

	expired := createOffer(t, db, "expired-offer", past, true)
	current := createOffer(t, db, "current-offer", future, true)
	openEnded := createOffer(t, db, "open-ended-offer", sql.NullTime{}, true)
	alreadyOff := createOffer(t, db, "already-off", past, false)

	require.NoError(t, s.deactivateExpiredOffers())

	q := store.New(db)

	got, err := q.GetOfferByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive, "offer past its end date should be deactivated")

	for _, id := range []int64{current.ID, openEnded.ID} {
		got, err := q.GetOfferByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.IsActive, "offer %d should stay active", id)
	}

	got, err = q.GetOfferByID(ctx, alreadyOff.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// The expiry is recorded in the audit log
	count, err := q.CountAuditEvents(ctx, "", model.EventCategorySystem)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDeactivateExpiredOffersIdempotent(t *testing.T) {
	s, db := testScheduler(t)

	past := sql.NullTime{Time: time.Now().Add(-time.Hour), Valid: true}
	createOffer(t, db, "expired-offer", past, true)

	require.NoError(t, s.deactivateExpiredOffers())
	require.NoError(t, s.deactivateExpiredOffers())

	// Second pass finds nothing to do and logs nothing new
	count, err := store.New(db).CountAuditEvents(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPurgeOldAuditEvents(t *testing.T) {
	s, db := testScheduler(t)
	ctx := context.Background()
	q := store.New(db)

	old := time.Now().Add(-auditRetention - 24*time.Hour)
	recent := time.Now().Add(-time.Hour)

	for _, createdAt := range []time.Time{old, old, recent} {
		require.NoError(t, q.CreateAuditEvent(ctx, store.CreateAuditEventParams{
			Level:     model.EventLevelInfo,
			Category:  model.EventCategorySystem,
			Message:   "event",
			Metadata:  "{}",
			CreatedAt: createdAt,
		}))
	}

	require.NoError(t, s.purgeOldAuditEvents())

	count, err := q.CountAuditEvents(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "only the recent event should survive")
}

func TestStartStop(t *testing.T) {
	s, _ := testScheduler(t)

	require.NoError(t, s.Start())
	s.Stop()
}
