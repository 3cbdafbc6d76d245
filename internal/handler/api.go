// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/service"
	"github.com/whitstable-shop/site/internal/store"
)

// APIHandler serves the JSON API under /api/v1.
type APIHandler struct {
	queries    *store.Queries
	moderation *service.ModerationService
}

// NewAPIHandler creates the JSON API handler.
func NewAPIHandler(db *sql.DB, moderation *service.ModerationService) *APIHandler {
	return &APIHandler{
		queries:    store.New(db),
		moderation: moderation,
	}
}

type infoPagePayload struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Body        string `json:"body"`
	IsPublished bool   `json:"is_published"`
}

type infoPageResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Body        string    `json:"body"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toInfoPageResponse(p store.InfoPage) infoPageResponse {
	return infoPageResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Body:        p.Body,
		IsPublished: p.IsPublished,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ListInfoPages returns all info pages.
func (h *APIHandler) ListInfoPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.queries.ListInfoPages(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not list pages")
		return
	}

	out := make([]infoPageResponse, len(pages))
	for i, p := range pages {
		out[i] = toInfoPageResponse(p)
	}
	writeJSON(w, http.StatusOK, out, map[string]any{"total": len(out)})
}

// GetInfoPage returns one info page by id.
func (h *APIHandler) GetInfoPage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return
	}

	page, err := h.queries.GetInfoPageByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "not_found", "page not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not load page")
		return
	}

	writeJSON(w, http.StatusOK, toInfoPageResponse(page), nil)
}

// CreateInfoPage inserts an info page.
func (h *APIHandler) CreateInfoPage(w http.ResponseWriter, r *http.Request) {
	var payload infoPagePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		writeJSONError(w, http.StatusUnprocessableEntity, "validation_failed", "title is required")
		return
	}

	slug, err := uniqueSlug(r.Context(), title, payload.Slug, 0, h.queries.CountInfoPagesBySlug)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not derive slug")
		return
	}

	now := time.Now()
	page, err := h.queries.CreateInfoPage(r.Context(), store.CreateInfoPageParams{
		Title:       title,
		Slug:        slug,
		Body:        payload.Body,
		IsPublished: payload.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not create page")
		return
	}

	writeJSON(w, http.StatusCreated, toInfoPageResponse(page), nil)
}

// UpdateInfoPage saves changes to an info page.
func (h *APIHandler) UpdateInfoPage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return
	}

	if _, err := h.queries.GetInfoPageByID(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "not_found", "page not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not load page")
		return
	}

	var payload infoPagePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		writeJSONError(w, http.StatusUnprocessableEntity, "validation_failed", "title is required")
		return
	}

	slug, err := uniqueSlug(r.Context(), title, payload.Slug, id, h.queries.CountInfoPagesBySlug)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not derive slug")
		return
	}

	page, err := h.queries.UpdateInfoPage(r.Context(), store.UpdateInfoPageParams{
		ID:          id,
		Title:       title,
		Slug:        slug,
		Body:        payload.Body,
		IsPublished: payload.IsPublished,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not update page")
		return
	}

	writeJSON(w, http.StatusOK, toInfoPageResponse(page), nil)
}

// DeleteInfoPage removes an info page.
func (h *APIHandler) DeleteInfoPage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return
	}

	if _, err := h.queries.GetInfoPageByID(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "not_found", "page not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not load page")
		return
	}

	if err := h.queries.DeleteInfoPage(r.Context(), id); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not delete page")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ModerationQueue returns the pending queue, optionally filtered by
// type.
func (h *APIHandler) ModerationQueue(w http.ResponseWriter, r *http.Request) {
	typeFilter := r.URL.Query().Get("type")
	if typeFilter != "" && !model.ValidContentType(typeFilter) {
		writeJSONError(w, http.StatusBadRequest, "invalid_type", "type must be shop or review")
		return
	}

	items, err := h.moderation.Queue(r.Context(), typeFilter)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not load queue")
		return
	}

	writeJSON(w, http.StatusOK, items, map[string]any{"total": len(items)})
}

type moderationActionPayload struct {
	Action string `json:"action"`
	Type   string `json:"type"`
	ID     int64  `json:"id"`
}

// ModerationAct applies one approve/reject action.
func (h *APIHandler) ModerationAct(w http.ResponseWriter, r *http.Request) {
	var payload moderationActionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}

	err := h.moderation.Act(r.Context(), payload.Action, payload.Type, payload.ID)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeJSONError(w, http.StatusUnprocessableEntity, "validation_failed", "invalid action or content type")
	case errors.Is(err, service.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", "queue entry not found")
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not apply action")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"result": "applied"}, nil)
	}
}

type moderationBulkPayload struct {
	Action string                `json:"action"`
	Items  []model.ModerationRef `json:"items"`
}

// ModerationBulkAct applies one action to a batch of queue entries.
// The batch commits atomically: any bad entry rolls everything back.
func (h *APIHandler) ModerationBulkAct(w http.ResponseWriter, r *http.Request) {
	var payload moderationBulkPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}
	if len(payload.Items) == 0 {
		writeJSONError(w, http.StatusUnprocessableEntity, "validation_failed", "items must not be empty")
		return
	}

	err := h.moderation.BulkAct(r.Context(), payload.Action, payload.Items)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeJSONError(w, http.StatusUnprocessableEntity, "validation_failed", "invalid action or content type")
	case errors.Is(err, service.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", "one of the entries no longer exists; nothing was changed")
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not apply actions")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"result": "applied", "count": len(payload.Items)}, nil)
	}
}

type walkResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	WalkDate     time.Time `json:"walk_date"`
	MeetingPoint string    `json:"meeting_point"`
	Attendees    int64     `json:"attendees"`
}

// ListWalks returns upcoming walks with attendance counts.
func (h *APIHandler) ListWalks(w http.ResponseWriter, r *http.Request) {
	walks, err := h.queries.ListUpcomingDogWalks(r.Context(), time.Now())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not list walks")
		return
	}

	out := make([]walkResponse, len(walks))
	for i, walk := range walks {
		count, err := h.queries.CountWalkAttendance(r.Context(), walk.ID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not count attendance")
			return
		}
		out[i] = walkResponse{
			ID:           walk.ID,
			Title:        walk.Title,
			WalkDate:     walk.WalkDate,
			MeetingPoint: walk.MeetingPoint,
			Attendees:    count,
		}
	}

	writeJSON(w, http.StatusOK, out, map[string]any{"total": len(out)})
}

type attendPayload struct {
	AttendeeName string `json:"attendee_name"`
	DogName      string `json:"dog_name"`
}

// AttendWalk signs an attendee up for a walk.
func (h *APIHandler) AttendWalk(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return
	}

	walk, err := h.queries.GetDogWalkByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "not_found", "walk not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not load walk")
		return
	}
	if !walk.IsActive || walk.WalkDate.Before(time.Now()) {
		writeJSONError(w, http.StatusUnprocessableEntity, "walk_closed", "walk is no longer open for sign-ups")
		return
	}

	var payload attendPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}
	if strings.TrimSpace(payload.AttendeeName) == "" {
		writeJSONError(w, http.StatusUnprocessableEntity, "validation_failed", "attendee_name is required")
		return
	}

	attendance, err := h.queries.CreateWalkAttendance(r.Context(), store.CreateWalkAttendanceParams{
		WalkID:       walk.ID,
		AttendeeName: strings.TrimSpace(payload.AttendeeName),
		DogName:      strings.TrimSpace(payload.DogName),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not record attendance")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": attendance.ID}, nil)
}

type reviewPayload struct {
	AuthorName string `json:"author_name"`
	Rating     int64  `json:"rating"`
	Body       string `json:"body"`
}

// SubmitReview accepts a review for a shop slug. The review lands in
// the moderation queue as pending.
func (h *APIHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))

	shop, err := h.queries.GetShopBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "not_found", "shop not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not load shop")
		return
	}

	var payload reviewPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}

	review, err := h.moderation.SubmitReview(r.Context(), service.SubmitReviewParams{
		ShopID:     shop.ID,
		AuthorName: payload.AuthorName,
		Rating:     payload.Rating,
		Body:       payload.Body,
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	})
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeJSONError(w, http.StatusUnprocessableEntity, "validation_failed", "author_name, body, and a rating from 1 to 5 are required")
	case errors.Is(err, service.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", "shop is not accepting reviews")
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "could not submit review")
	default:
		writeJSON(w, http.StatusAccepted, map[string]any{"id": review.ID, "status": review.Status}, nil)
	}
}
