// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/whitstable-shop/site/internal/middleware"
	"github.com/whitstable-shop/site/internal/render"
	"github.com/whitstable-shop/site/internal/service"
	"github.com/whitstable-shop/site/internal/store"
)

// CompetitionHandler manages photo competitions and their entries in
// the back office.
type CompetitionHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	photos         *service.PhotoService
}

// NewCompetitionHandler creates a competition handler.
func NewCompetitionHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, photos *service.PhotoService) *CompetitionHandler {
	return &CompetitionHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		photos:         photos,
	}
}

// List shows all competitions.
func (h *CompetitionHandler) List(w http.ResponseWriter, r *http.Request) {
	competitions, err := h.queries.ListCompetitions(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing competitions", err)
		return
	}

	err = h.renderer.Render(w, r, "admin/competitions", render.TemplateData{
		Title:    "Photo Competitions",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Competitions  []store.Competition
			ConfirmDelete int64
		}{competitions, confirmDeleteID(r)},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Competitions", URL: redirectAdminCompetitions},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering competitions", err)
	}
}

// NewForm renders the competition create form.
func (h *CompetitionHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, store.Competition{IsActive: true}, false)
}

// Create inserts a competition.
func (h *CompetitionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminCompetitions+RouteSuffixNew, "Invalid form submission.")
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	if title == "" {
		flashError(h.renderer, w, r, redirectAdminCompetitions+RouteSuffixNew, "Title is required.")
		return
	}

	slug, err := uniqueSlug(r.Context(), title, r.PostFormValue("slug"), 0, h.queries.CountCompetitionsBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving competition slug", err)
		return
	}

	now := time.Now()
	_, err = h.queries.CreateCompetition(r.Context(), store.CreateCompetitionParams{
		Title:     title,
		Slug:      slug,
		Theme:     strings.TrimSpace(r.PostFormValue("theme")),
		StartsAt:  parseNullDateTimeLocal(r.PostFormValue("starts_at")),
		EndsAt:    parseNullDateTimeLocal(r.PostFormValue("ends_at")),
		IsActive:  parseCheckbox(r, "is_active"),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		logAndInternalError(w, r, "creating competition", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminCompetitions, "Competition created.")
}

// EditForm renders the competition edit form.
func (h *CompetitionHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	competition, ok := h.loadCompetition(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, competition, true)
}

// Update saves competition changes.
func (h *CompetitionHandler) Update(w http.ResponseWriter, r *http.Request) {
	competition, ok := h.loadCompetition(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminCompetitions, "Invalid form submission.")
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	if title == "" {
		flashError(h.renderer, w, r, redirectAdminCompetitions, "Title is required.")
		return
	}

	slug, err := uniqueSlug(r.Context(), title, r.PostFormValue("slug"), competition.ID, h.queries.CountCompetitionsBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving competition slug", err)
		return
	}

	_, err = h.queries.UpdateCompetition(r.Context(), store.UpdateCompetitionParams{
		ID:        competition.ID,
		Title:     title,
		Slug:      slug,
		Theme:     strings.TrimSpace(r.PostFormValue("theme")),
		StartsAt:  parseNullDateTimeLocal(r.PostFormValue("starts_at")),
		EndsAt:    parseNullDateTimeLocal(r.PostFormValue("ends_at")),
		IsActive:  parseCheckbox(r, "is_active"),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, r, "updating competition", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminCompetitions, "Competition updated.")
}

// Toggle flips the active flag. Inactive competitions stop accepting
// entries immediately.
func (h *CompetitionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	competition, ok := h.loadCompetition(w, r)
	if !ok {
		return
	}

	if err := h.queries.SetCompetitionActive(r.Context(), competition.ID, !competition.IsActive, time.Now()); err != nil {
		logAndInternalError(w, r, "toggling competition", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminCompetitions, "Competition updated.")
}

// Delete removes a competition. Entry photo files for its entries are
// removed one by one so no orphans stay under the upload directory.
func (h *CompetitionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	competition, ok := h.loadCompetition(w, r)
	if !ok {
		return
	}

	entries, err := h.queries.ListPhotoEntriesForCompetition(r.Context(), competition.ID)
	if err != nil {
		logAndInternalError(w, r, "listing entries", err)
		return
	}
	for _, entry := range entries {
		if err := h.photos.DeleteEntry(r.Context(), entry.ID); err != nil {
			logAndInternalError(w, r, "deleting entry", err)
			return
		}
	}

	if err := h.queries.DeleteCompetition(r.Context(), competition.ID); err != nil {
		logAndInternalError(w, r, "deleting competition", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminCompetitions, "Competition deleted.")
}

// Entries shows all entries for a competition with moderation controls.
func (h *CompetitionHandler) Entries(w http.ResponseWriter, r *http.Request) {
	competition, ok := h.loadCompetition(w, r)
	if !ok {
		return
	}

	entries, err := h.queries.ListPhotoEntriesForCompetition(r.Context(), competition.ID)
	if err != nil {
		logAndInternalError(w, r, "listing entries", err)
		return
	}

	err = h.renderer.Render(w, r, "admin/competition_entries", render.TemplateData{
		Title:    "Entries: " + competition.Title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Competition store.Competition
			Entries     []store.PhotoEntry
		}{competition, entries},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Competitions", URL: redirectAdminCompetitions},
			{Label: competition.Title, URL: ""},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering entries", err)
	}
}

// ModerateEntry approves or rejects one photo entry.
func (h *CompetitionHandler) ModerateEntry(w http.ResponseWriter, r *http.Request) {
	competition, ok := h.loadCompetition(w, r)
	if !ok {
		return
	}
	entriesURL := fmt.Sprintf("%s/%d/entries", redirectAdminCompetitions, competition.ID)

	entryID, err := parseFormInt64(r, "entry_id")
	if err != nil {
		flashError(h.renderer, w, r, entriesURL, "Invalid entry.")
		return
	}

	if err := h.photos.Moderate(r.Context(), entryID, r.PostFormValue("action")); err != nil {
		if errors.Is(err, service.ErrInvalidInput) || errors.Is(err, service.ErrNotFound) {
			flashError(h.renderer, w, r, entriesURL, "Could not moderate entry.")
			return
		}
		logAndInternalError(w, r, "moderating entry", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, entriesURL, "Entry updated.")
}

// DeleteEntry removes one photo entry and its files.
func (h *CompetitionHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	competition, ok := h.loadCompetition(w, r)
	if !ok {
		return
	}
	entriesURL := fmt.Sprintf("%s/%d/entries", redirectAdminCompetitions, competition.ID)

	entryID, err := parseFormInt64(r, "entry_id")
	if err != nil {
		flashError(h.renderer, w, r, entriesURL, "Invalid entry.")
		return
	}

	if err := h.photos.DeleteEntry(r.Context(), entryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(h.renderer, w, r, entriesURL, "Entry not found.")
			return
		}
		logAndInternalError(w, r, "deleting entry", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, entriesURL, "Entry deleted.")
}

func (h *CompetitionHandler) loadCompetition(w http.ResponseWriter, r *http.Request) (store.Competition, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminCompetitions, "Invalid competition.")
		return store.Competition{}, false
	}

	competition, err := h.queries.GetCompetitionByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(h.renderer, w, r, redirectAdminCompetitions, "Competition not found.")
			return store.Competition{}, false
		}
		logAndInternalError(w, r, "loading competition", err)
		return store.Competition{}, false
	}
	return competition, true
}

func (h *CompetitionHandler) renderForm(w http.ResponseWriter, r *http.Request, competition store.Competition, editing bool) {
	title := "New Competition"
	if editing {
		title = "Edit Competition"
	}

	err := h.renderer.Render(w, r, "admin/competition_form", render.TemplateData{
		Title:    title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Competition store.Competition
			Editing     bool
		}{competition, editing},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Competitions", URL: redirectAdminCompetitions},
			{Label: title, URL: ""},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering competition form", err)
	}
}
