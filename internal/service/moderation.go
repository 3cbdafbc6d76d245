// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/whitstable-shop/site/internal/geoip"
	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/store"
)

// reviewSanitizer strips all HTML from community-submitted text.
// Reviews are plain text; anything markup-shaped is an attack surface.
var reviewSanitizer = bluemonday.StrictPolicy()

// ErrNotFound is returned when a moderation target does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput is returned for submissions that fail validation.
var ErrInvalidInput = errors.New("invalid input")

// ModerationService manages the union queue of pending shops and
// reviews, and accepts public review submissions.
type ModerationService struct {
	db      *sql.DB
	queries *store.Queries
	geo     *geoip.Lookup
}

// NewModerationService creates a new ModerationService. geo may be nil;
// reviews then carry no country context.
func NewModerationService(db *sql.DB, geo *geoip.Lookup) *ModerationService {
	return &ModerationService{
		db:      db,
		queries: store.New(db),
		geo:     geo,
	}
}

// Queue returns the merged moderation feed, newest first. typeFilter is
// "" for all, or one of the moderation content types; filtering re-runs
// the underlying queries rather than slicing a cached feed.
func (s *ModerationService) Queue(ctx context.Context, typeFilter string) ([]model.ModerationItem, error) {
	var items []model.ModerationItem

	if typeFilter == "" || typeFilter == model.ContentTypeShop {
		shopItems, err := s.pendingShopItems(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, shopItems...)
	}

	if typeFilter == "" || typeFilter == model.ContentTypeReview {
		reviewItems, err := s.pendingReviewItems(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, reviewItems...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	return items, nil
}

func (s *ModerationService) pendingShopItems(ctx context.Context) ([]model.ModerationItem, error) {
	shops, err := s.queries.ListShopsByStatus(ctx, model.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("listing pending shops: %w", err)
	}

	categoryNames, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]model.ModerationItem, 0, len(shops))
	for _, shop := range shops {
		subtitle := "Uncategorised"
		if shop.CategoryID.Valid {
			if name, ok := categoryNames[shop.CategoryID.Int64]; ok {
				subtitle = name
			}
		}
		items = append(items, model.ModerationItem{
			Type:      model.ContentTypeShop,
			ID:        shop.ID,
			Title:     shop.Name,
			Subtitle:  subtitle,
			CreatedAt: shop.CreatedAt,
		})
	}
	return items, nil
}

func (s *ModerationService) pendingReviewItems(ctx context.Context) ([]model.ModerationItem, error) {
	reviews, err := s.queries.ListReviewsByStatus(ctx, model.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("listing pending reviews: %w", err)
	}

	items := make([]model.ModerationItem, 0, len(reviews))
	for _, review := range reviews {
		subtitle := ""
		if shop, err := s.queries.GetShopByID(ctx, review.ShopID); err == nil {
			subtitle = shop.Name
		}
		items = append(items, model.ModerationItem{
			Type:      model.ContentTypeReview,
			ID:        review.ID,
			Title:     excerpt(review.Body, 80),
			Subtitle:  subtitle,
			Rating:    review.Rating,
			Country:   geoip.CountryName(review.CountryCode),
			Device:    review.DeviceType,
			CreatedAt: review.CreatedAt,
		})
	}
	return items, nil
}

func (s *ModerationService) categoryNames(ctx context.Context) (map[int64]string, error) {
	categories, err := s.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}

// Act applies a single approve or reject to one queue entry.
func (s *ModerationService) Act(ctx context.Context, action, contentType string, id int64) error {
	if !model.ValidAction(action) {
		return fmt.Errorf("%w: action %q", ErrInvalidInput, action)
	}
	if !model.ValidContentType(contentType) {
		return fmt.Errorf("%w: content type %q", ErrInvalidInput, contentType)
	}

	status := actionStatus(action)
	if err := applyStatus(ctx, s.queries, contentType, id, status); err != nil {
		return err
	}

	slog.Info("moderation action applied",
		"action", action,
		"content_type", contentType,
		"content_id", id,
	)
	return nil
}

// BulkAct applies one action to every referenced item inside a single
// transaction. Any failure rolls back the whole batch.
func (s *ModerationService) BulkAct(ctx context.Context, action string, refs []model.ModerationRef) error {
	if !model.ValidAction(action) {
		return fmt.Errorf("%w: action %q", ErrInvalidInput, action)
	}
	if len(refs) == 0 {
		return fmt.Errorf("%w: empty item list", ErrInvalidInput)
	}
	for _, ref := range refs {
		if !model.ValidContentType(ref.Type) {
			return fmt.Errorf("%w: content type %q", ErrInvalidInput, ref.Type)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)
	status := actionStatus(action)

	for _, ref := range refs {
		if err := applyStatus(ctx, qtx, ref.Type, ref.ID, status); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bulk moderation: %w", err)
	}

	slog.Info("bulk moderation applied", "action", action, "count", len(refs))
	return nil
}

func actionStatus(action string) string {
	if action == model.ActionApprove {
		return model.StatusApproved
	}
	return model.StatusRejected
}

func applyStatus(ctx context.Context, q *store.Queries, contentType string, id int64, status string) error {
	now := time.Now()
	switch contentType {
	case model.ContentTypeShop:
		if _, err := q.GetShopByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: shop %d", ErrNotFound, id)
			}
			return fmt.Errorf("fetching shop %d: %w", id, err)
		}
		if err := q.UpdateShopStatus(ctx, id, status, now); err != nil {
			return fmt.Errorf("updating shop %d status: %w", id, err)
		}
	case model.ContentTypeReview:
		if _, err := q.GetReviewByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: review %d", ErrNotFound, id)
			}
			return fmt.Errorf("fetching review %d: %w", id, err)
		}
		if err := q.UpdateReviewStatus(ctx, id, status, now); err != nil {
			return fmt.Errorf("updating review %d status: %w", id, err)
		}
	default:
		return fmt.Errorf("%w: content type %q", ErrInvalidInput, contentType)
	}
	return nil
}

// SubmitReviewParams is a public review submission.
type SubmitReviewParams struct {
	ShopID     int64
	AuthorName string
	Rating     int64
	Body       string
	IPAddress  string
	UserAgent  string
}

// SubmitReview validates and stores a community review. The review
// enters the queue as pending with country and device context recorded
// for moderators.
func (s *ModerationService) SubmitReview(ctx context.Context, params SubmitReviewParams) (store.Review, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return store.Review{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}

	authorName := strings.TrimSpace(reviewSanitizer.Sanitize(params.AuthorName))
	body := strings.TrimSpace(reviewSanitizer.Sanitize(params.Body))
	if authorName == "" {
		return store.Review{}, fmt.Errorf("%w: author name is required", ErrInvalidInput)
	}
	if body == "" {
		return store.Review{}, fmt.Errorf("%w: review body is required", ErrInvalidInput)
	}

	shop, err := s.queries.GetShopByID(ctx, params.ShopID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Review{}, fmt.Errorf("%w: shop %d", ErrNotFound, params.ShopID)
		}
		return store.Review{}, fmt.Errorf("fetching shop: %w", err)
	}
	if shop.Status != model.StatusApproved || !shop.IsActive {
		return store.Review{}, fmt.Errorf("%w: shop %d", ErrNotFound, params.ShopID)
	}

	countryCode := ""
	if s.geo != nil {
		countryCode = s.geo.LookupCountry(params.IPAddress)
	}
	client := geoip.ParseClient(params.UserAgent)

	now := time.Now()
	review, err := s.queries.CreateReview(ctx, store.CreateReviewParams{
		ShopID:      shop.ID,
		AuthorName:  authorName,
		Rating:      params.Rating,
		Body:        body,
		Status:      model.StatusPending,
		CountryCode: countryCode,
		DeviceType:  client.DeviceType,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return store.Review{}, fmt.Errorf("creating review: %w", err)
	}

	slog.Info("review submitted",
		"shop_id", shop.ID,
		"review_id", review.ID,
		"country", countryCode,
		"device", client.DeviceType,
	)
	return review, nil
}

// excerpt shortens a review body for the queue listing. Cuts on runes
// so multibyte text is never split mid-character.
func excerpt(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := string(runes[:max])
	if idx := strings.LastIndex(cut, " "); idx > max/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
