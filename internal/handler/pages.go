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

	"github.com/whitstable-shop/site/internal/middleware"
	"github.com/whitstable-shop/site/internal/render"
	"github.com/whitstable-shop/site/internal/store"
)

// InfoPageHandler manages markdown info pages in the back office.
type InfoPageHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewInfoPageHandler creates an info page handler.
func NewInfoPageHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *InfoPageHandler {
	return &InfoPageHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
	}
}

// List shows all info pages.
func (h *InfoPageHandler) List(w http.ResponseWriter, r *http.Request) {
	pages, err := h.queries.ListInfoPages(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing info pages", err)
		return
	}

	pageItems, pagination := Paginate(pages, ParsePageParam(r), DefaultPageSize)

	err = h.renderer.Render(w, r, "admin/infopages", render.TemplateData{
		Title:    "Info Pages",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Pages         []store.InfoPage
			Pagination    Pagination
			ConfirmDelete int64
		}{pageItems, pagination, confirmDeleteID(r)},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Info Pages", URL: redirectAdminInfoPages},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering info pages", err)
	}
}

// NewForm renders the info page create form.
func (h *InfoPageHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, store.InfoPage{}, false)
}

// Create inserts an info page. New pages start unpublished unless the
// publish box is ticked.
func (h *InfoPageHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminInfoPages+RouteSuffixNew, "Invalid form submission.")
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	if title == "" {
		flashError(h.renderer, w, r, redirectAdminInfoPages+RouteSuffixNew, "Title is required.")
		return
	}

	slug, err := uniqueSlug(r.Context(), title, r.PostFormValue("slug"), 0, h.queries.CountInfoPagesBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving page slug", err)
		return
	}

	now := time.Now()
	_, err = h.queries.CreateInfoPage(r.Context(), store.CreateInfoPageParams{
		Title:       title,
		Slug:        slug,
		Body:        r.PostFormValue("body"),
		IsPublished: parseCheckbox(r, "is_published"),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logAndInternalError(w, r, "creating info page", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminInfoPages, "Page created.")
}

// EditForm renders the info page edit form.
func (h *InfoPageHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	page, ok := h.loadPage(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, page, true)
}

// Update saves info page changes.
func (h *InfoPageHandler) Update(w http.ResponseWriter, r *http.Request) {
	page, ok := h.loadPage(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminInfoPages, "Invalid form submission.")
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	if title == "" {
		flashError(h.renderer, w, r, redirectAdminInfoPages, "Title is required.")
		return
	}

	slug, err := uniqueSlug(r.Context(), title, r.PostFormValue("slug"), page.ID, h.queries.CountInfoPagesBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving page slug", err)
		return
	}

	_, err = h.queries.UpdateInfoPage(r.Context(), store.UpdateInfoPageParams{
		ID:          page.ID,
		Title:       title,
		Slug:        slug,
		Body:        r.PostFormValue("body"),
		IsPublished: parseCheckbox(r, "is_published"),
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		logAndInternalError(w, r, "updating info page", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminInfoPages, "Page updated.")
}

// TogglePublished flips the published flag.
func (h *InfoPageHandler) TogglePublished(w http.ResponseWriter, r *http.Request) {
	page, ok := h.loadPage(w, r)
	if !ok {
		return
	}

	if err := h.queries.SetInfoPagePublished(r.Context(), page.ID, !page.IsPublished, time.Now()); err != nil {
		logAndInternalError(w, r, "toggling page", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminInfoPages, "Page updated.")
}

// Delete removes an info page.
func (h *InfoPageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	page, ok := h.loadPage(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteInfoPage(r.Context(), page.ID); err != nil {
		logAndInternalError(w, r, "deleting info page", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminInfoPages, "Page deleted.")
}

func (h *InfoPageHandler) loadPage(w http.ResponseWriter, r *http.Request) (store.InfoPage, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminInfoPages, "Invalid page.")
		return store.InfoPage{}, false
	}

	page, err := h.queries.GetInfoPageByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(h.renderer, w, r, redirectAdminInfoPages, "Page not found.")
			return store.InfoPage{}, false
		}
		logAndInternalError(w, r, "loading info page", err)
		return store.InfoPage{}, false
	}
	return page, true
}

func (h *InfoPageHandler) renderForm(w http.ResponseWriter, r *http.Request, page store.InfoPage, editing bool) {
	title := "New Page"
	if editing {
		title = "Edit Page"
	}

	err := h.renderer.Render(w, r, "admin/infopage_form", render.TemplateData{
		Title:    title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Page    store.InfoPage
			Editing bool
		}{page, editing},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Info Pages", URL: redirectAdminInfoPages},
			{Label: title, URL: ""},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering info page form", err)
	}
}
