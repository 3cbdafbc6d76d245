package service

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitstable-shop/site/internal/imaging"
	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/store"
)

func photoService(t *testing.T, db *sql.DB) *PhotoService {
	t.Helper()
	return NewPhotoService(db, imaging.NewProcessor(t.TempDir()))
}

func createCompetition(t *testing.T, db *sql.DB, title string, active bool) store.Competition {
	t.Helper()
	now := time.Now()
	competition, err := store.New(db).CreateCompetition(context.Background(), store.CreateCompetitionParams{
		Title:     title,
		Slug:      title,
		Theme:     "Harbour life",
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return competition
}

func testPhoto(t *testing.T) *bytes.Reader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return bytes.NewReader(buf.Bytes())
}

func TestSubmitEntry(t *testing.T) {
	db := testDB(t)
	svc := photoService(t, db)
	ctx := context.Background()

	competition := createCompetition(t, db, "summer-2026", true)

	entry, err := svc.SubmitEntry(ctx, SubmitEntryParams{
		CompetitionID: competition.ID,
		EntrantName:   "Jo",
		Caption:       "<b>Sunset</b> over the harbour",
		Photo:         testPhoto(t),
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, entry.Status)
	assert.Equal(t, "Sunset over the harbour", entry.Caption, "HTML should be stripped")
	assert.FileExists(t, entry.FilePath)
	assert.FileExists(t, entry.ThumbPath)
}

func TestSubmitEntryClosedCompetition(t *testing.T) {
	db := testDB(t)
	svc := photoService(t, db)
	ctx := context.Background()

	closed := createCompetition(t, db, "closed-comp", false)

	_, err := svc.SubmitEntry(ctx, SubmitEntryParams{
		CompetitionID: closed.ID,
		EntrantName:   "Jo",
		Photo:         testPhoto(t),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SubmitEntry(ctx, SubmitEntryParams{
		CompetitionID: 99999,
		EntrantName:   "Jo",
		Photo:         testPhoto(t),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestModerateEntry(t *testing.T) {
	db := testDB(t)
	svc := photoService(t, db)
	ctx := context.Background()

	competition := createCompetition(t, db, "gallery-comp", true)
	entry, err := svc.SubmitEntry(ctx, SubmitEntryParams{
		CompetitionID: competition.ID,
		EntrantName:   "Jo",
		Photo:         testPhoto(t),
	})
	require.NoError(t, err)

	// Pending entries are not in the public gallery
	_, entries, err := svc.Gallery(ctx, competition.Slug)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, svc.Moderate(ctx, entry.ID, model.ActionApprove))

	_, entries, err = svc.Gallery(ctx, competition.Slug)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
}

func TestModerateValidation(t *testing.T) {
	db := testDB(t)
	svc := photoService(t, db)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Moderate(ctx, 1, "publish"), ErrInvalidInput)
	assert.ErrorIs(t, svc.Moderate(ctx, 99999, model.ActionApprove), ErrNotFound)
}

func TestDeleteEntryRemovesFiles(t *testing.T) {
	db := testDB(t)
	svc := photoService(t, db)
	ctx := context.Background()

	competition := createCompetition(t, db, "delete-comp", true)
	entry, err := svc.SubmitEntry(ctx, SubmitEntryParams{
		CompetitionID: competition.ID,
		EntrantName:   "Jo",
		Photo:         testPhoto(t),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntry(ctx, entry.ID))

	_, err = store.New(db).GetPhotoEntryByID(ctx, entry.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, statErr := os.Stat(entry.FilePath)
	assert.True(t, os.IsNotExist(statErr), "original file should be deleted")
}

func TestGalleryUnknownSlug(t *testing.T) {
	db := testDB(t)
	svc := photoService(t, db)

	_, _, err := svc.Gallery(context.Background(), "no-such-competition")
	assert.ErrorIs(t, err, ErrNotFound)
}
