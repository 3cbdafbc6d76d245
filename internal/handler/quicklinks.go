// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/whitstable-shop/site/internal/cache"
	"github.com/whitstable-shop/site/internal/middleware"
	"github.com/whitstable-shop/site/internal/render"
	"github.com/whitstable-shop/site/internal/store"
)

// QuickLinkHandler manages home-page shortcuts in the back office.
type QuickLinkHandler struct {
	db             *sql.DB
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	cacheManager   *cache.Manager
}

// NewQuickLinkHandler creates a quick link handler.
func NewQuickLinkHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, cm *cache.Manager) *QuickLinkHandler {
	return &QuickLinkHandler{
		db:             db,
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		cacheManager:   cm,
	}
}

// List shows all quick links ordered by sort order.
func (h *QuickLinkHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.queries.ListQuickLinks(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing quick links", err)
		return
	}

	err = h.renderer.Render(w, r, "admin/quicklinks", render.TemplateData{
		Title:    "Quick Links",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Links         []store.QuickLink
			ConfirmDelete int64
		}{links, confirmDeleteID(r)},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Quick Links", URL: redirectAdminQuickLinks},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering quick links", err)
	}
}

// NewForm renders the quick link create form.
func (h *QuickLinkHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, store.QuickLink{IsActive: true}, false)
}

// Create inserts a quick link at the end of the sort order.
func (h *QuickLinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminQuickLinks+RouteSuffixNew, "Invalid form submission.")
		return
	}

	label := strings.TrimSpace(r.PostFormValue("label"))
	url := strings.TrimSpace(r.PostFormValue("url"))
	if label == "" || url == "" {
		flashError(h.renderer, w, r, redirectAdminQuickLinks+RouteSuffixNew, "Label and URL are required.")
		return
	}

	maxOrder, err := h.queries.MaxQuickLinkSortOrder(r.Context())
	if err != nil {
		logAndInternalError(w, r, "reading max sort order", err)
		return
	}

	now := time.Now()
	_, err = h.queries.CreateQuickLink(r.Context(), store.CreateQuickLinkParams{
		Label:     label,
		Url:       url,
		Icon:      strings.TrimSpace(r.PostFormValue("icon")),
		SortOrder: maxOrder + 1,
		IsActive:  parseCheckbox(r, "is_active"),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		logAndInternalError(w, r, "creating quick link", err)
		return
	}

	h.cacheManager.InvalidateQuickLinks(r.Context())
	flashAndRedirect(h.renderer, w, r, redirectAdminQuickLinks, "Quick link created.")
}

// EditForm renders the quick link edit form.
func (h *QuickLinkHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	link, ok := h.loadLink(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, link, true)
}

// Update saves quick link changes. Sort order only moves via Reorder.
func (h *QuickLinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	link, ok := h.loadLink(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminQuickLinks, "Invalid form submission.")
		return
	}

	label := strings.TrimSpace(r.PostFormValue("label"))
	url := strings.TrimSpace(r.PostFormValue("url"))
	if label == "" || url == "" {
		flashError(h.renderer, w, r, redirectAdminQuickLinks, "Label and URL are required.")
		return
	}

	_, err := h.queries.UpdateQuickLink(r.Context(), store.UpdateQuickLinkParams{
		ID:        link.ID,
		Label:     label,
		Url:       url,
		Icon:      strings.TrimSpace(r.PostFormValue("icon")),
		IsActive:  parseCheckbox(r, "is_active"),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, r, "updating quick link", err)
		return
	}

	h.cacheManager.InvalidateQuickLinks(r.Context())
	flashAndRedirect(h.renderer, w, r, redirectAdminQuickLinks, "Quick link updated.")
}

// Toggle flips the active flag.
func (h *QuickLinkHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	link, ok := h.loadLink(w, r)
	if !ok {
		return
	}

	if err := h.queries.SetQuickLinkActive(r.Context(), link.ID, !link.IsActive, time.Now()); err != nil {
		logAndInternalError(w, r, "toggling quick link", err)
		return
	}

	h.cacheManager.InvalidateQuickLinks(r.Context())
	flashAndRedirect(h.renderer, w, r, redirectAdminQuickLinks, "Quick link updated.")
}

// Reorder swaps the link's sort order with its neighbour in the given
// direction, both rows in one transaction. Edges are a no-op.
func (h *QuickLinkHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	link, ok := h.loadLink(w, r)
	if !ok {
		return
	}

	direction := r.PostFormValue("direction")
	if direction != "up" && direction != "down" {
		flashError(h.renderer, w, r, redirectAdminQuickLinks, "Invalid direction.")
		return
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		logAndInternalError(w, r, "starting transaction", err)
		return
	}
	defer func() { _ = tx.Rollback() }()

	qtx := h.queries.WithTx(tx)
	links, err := qtx.ListQuickLinks(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing quick links", err)
		return
	}

	idx := -1
	for i, l := range links {
		if l.ID == link.ID {
			idx = i
			break
		}
	}

	swapWith := -1
	switch {
	case direction == "up" && idx > 0:
		swapWith = idx - 1
	case direction == "down" && idx >= 0 && idx < len(links)-1:
		swapWith = idx + 1
	}
	if swapWith < 0 {
		http.Redirect(w, r, redirectAdminQuickLinks, http.StatusSeeOther)
		return
	}

	now := time.Now()
	a, b := links[idx], links[swapWith]
	if err := qtx.UpdateQuickLinkSortOrder(r.Context(), a.ID, b.SortOrder, now); err != nil {
		logAndInternalError(w, r, "reordering quick link", err)
		return
	}
	if err := qtx.UpdateQuickLinkSortOrder(r.Context(), b.ID, a.SortOrder, now); err != nil {
		logAndInternalError(w, r, "reordering quick link", err)
		return
	}
	if err := tx.Commit(); err != nil {
		logAndInternalError(w, r, "committing reorder", err)
		return
	}

	h.cacheManager.InvalidateQuickLinks(r.Context())
	http.Redirect(w, r, redirectAdminQuickLinks, http.StatusSeeOther)
}

// Delete removes a quick link.
func (h *QuickLinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	link, ok := h.loadLink(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteQuickLink(r.Context(), link.ID); err != nil {
		logAndInternalError(w, r, "deleting quick link", err)
		return
	}

	h.cacheManager.InvalidateQuickLinks(r.Context())
	flashAndRedirect(h.renderer, w, r, redirectAdminQuickLinks, "Quick link deleted.")
}

func (h *QuickLinkHandler) loadLink(w http.ResponseWriter, r *http.Request) (store.QuickLink, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminQuickLinks, "Invalid quick link.")
		return store.QuickLink{}, false
	}

	link, err := h.queries.GetQuickLinkByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(h.renderer, w, r, redirectAdminQuickLinks, "Quick link not found.")
			return store.QuickLink{}, false
		}
		logAndInternalError(w, r, "loading quick link", err)
		return store.QuickLink{}, false
	}
	return link, true
}

func (h *QuickLinkHandler) renderForm(w http.ResponseWriter, r *http.Request, link store.QuickLink, editing bool) {
	title := "New Quick Link"
	if editing {
		title = "Edit Quick Link"
	}

	err := h.renderer.Render(w, r, "admin/quicklink_form", render.TemplateData{
		Title:    title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Link    store.QuickLink
			Editing bool
		}{link, editing},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Quick Links", URL: redirectAdminQuickLinks},
			{Label: title, URL: ""},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering quick link form", err)
	}
}
