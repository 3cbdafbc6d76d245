// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/whitstable-shop/site/internal/imaging"
	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/store"
)

// captionSanitizer strips HTML from entrant-supplied text.
var captionSanitizer = bluemonday.StrictPolicy()

// PhotoService manages competition entries: upload processing,
// moderation, and cleanup.
type PhotoService struct {
	queries   *store.Queries
	processor *imaging.Processor
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(db *sql.DB, processor *imaging.Processor) *PhotoService {
	return &PhotoService{
		queries:   store.New(db),
		processor: processor,
	}
}

// SubmitEntryParams is a public competition entry upload.
type SubmitEntryParams struct {
	CompetitionID int64
	EntrantName   string
	Caption       string
	Photo         io.Reader
}

// SubmitEntry processes an uploaded photo and stores a pending entry.
// The competition must exist and be open.
func (s *PhotoService) SubmitEntry(ctx context.Context, params SubmitEntryParams) (store.PhotoEntry, error) {
	entrantName := strings.TrimSpace(captionSanitizer.Sanitize(params.EntrantName))
	caption := strings.TrimSpace(captionSanitizer.Sanitize(params.Caption))
	if entrantName == "" {
		return store.PhotoEntry{}, fmt.Errorf("%w: entrant name is required", ErrInvalidInput)
	}

	competition, err := s.queries.GetCompetitionByID(ctx, params.CompetitionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.PhotoEntry{}, fmt.Errorf("%w: competition %d", ErrNotFound, params.CompetitionID)
		}
		return store.PhotoEntry{}, fmt.Errorf("fetching competition: %w", err)
	}
	if !competition.IsActive {
		return store.PhotoEntry{}, fmt.Errorf("%w: competition %d is closed", ErrInvalidInput, competition.ID)
	}

	result, err := s.processor.ProcessEntry(params.Photo)
	if err != nil {
		return store.PhotoEntry{}, fmt.Errorf("processing photo: %w", err)
	}

	var takenAt sql.NullTime
	if result.TakenAt != nil {
		takenAt = sql.NullTime{Time: *result.TakenAt, Valid: true}
	}

	entry, err := s.queries.CreatePhotoEntry(ctx, store.CreatePhotoEntryParams{
		CompetitionID: competition.ID,
		EntrantName:   entrantName,
		Caption:       caption,
		FilePath:      result.FilePath,
		ThumbPath:     result.ThumbPath,
		TakenAt:       takenAt,
		Status:        model.StatusPending,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		// The row failed; don't leave orphan files behind
		_ = s.processor.DeleteEntryFiles(result.FilePath, result.ThumbPath)
		return store.PhotoEntry{}, fmt.Errorf("creating photo entry: %w", err)
	}

	slog.Info("photo entry submitted",
		"competition_id", competition.ID,
		"entry_id", entry.ID,
	)
	return entry, nil
}

// Moderate approves or rejects a single entry.
func (s *PhotoService) Moderate(ctx context.Context, entryID int64, action string) error {
	if !model.ValidAction(action) {
		return fmt.Errorf("%w: action %q", ErrInvalidInput, action)
	}

	if _, err := s.queries.GetPhotoEntryByID(ctx, entryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: photo entry %d", ErrNotFound, entryID)
		}
		return fmt.Errorf("fetching photo entry: %w", err)
	}

	if err := s.queries.UpdatePhotoEntryStatus(ctx, entryID, actionStatus(action)); err != nil {
		return fmt.Errorf("updating photo entry %d: %w", entryID, err)
	}

	slog.Info("photo entry moderated", "entry_id", entryID, "action", action)
	return nil
}

// DeleteEntry removes an entry row and its files on disk.
func (s *PhotoService) DeleteEntry(ctx context.Context, entryID int64) error {
	entry, err := s.queries.GetPhotoEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: photo entry %d", ErrNotFound, entryID)
		}
		return fmt.Errorf("fetching photo entry: %w", err)
	}

	if err := s.queries.DeletePhotoEntry(ctx, entryID); err != nil {
		return fmt.Errorf("deleting photo entry %d: %w", entryID, err)
	}

	if err := s.processor.DeleteEntryFiles(entry.FilePath, entry.ThumbPath); err != nil {
		// Row is gone; files are now orphans worth a warning, not a failure
		slog.Warn("removing photo entry files", "entry_id", entryID, "error", err)
	}

	return nil
}

// Gallery returns the approved entries for a competition, identified
// by slug, for the public gallery page.
func (s *PhotoService) Gallery(ctx context.Context, slug string) (store.Competition, []store.PhotoEntry, error) {
	competition, err := s.queries.GetCompetitionBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Competition{}, nil, fmt.Errorf("%w: competition %q", ErrNotFound, slug)
		}
		return store.Competition{}, nil, fmt.Errorf("fetching competition: %w", err)
	}

	entries, err := s.queries.ListApprovedPhotoEntries(ctx, competition.ID)
	if err != nil {
		return store.Competition{}, nil, fmt.Errorf("listing approved entries: %w", err)
	}

	return competition, entries, nil
}
