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

// CharityHandler manages local charities in the back office.
type CharityHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewCharityHandler creates a charity handler.
func NewCharityHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *CharityHandler {
	return &CharityHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
	}
}

// List shows all charities.
func (h *CharityHandler) List(w http.ResponseWriter, r *http.Request) {
	charities, err := h.queries.ListCharities(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing charities", err)
		return
	}

	page, pagination := Paginate(charities, ParsePageParam(r), DefaultPageSize)

	err = h.renderer.Render(w, r, "admin/charities", render.TemplateData{
		Title:    "Charities",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Charities     []store.Charity
			Pagination    Pagination
			ConfirmDelete int64
		}{page, pagination, confirmDeleteID(r)},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Charities", URL: redirectAdminCharities},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering charities", err)
	}
}

// NewForm renders the charity create form.
func (h *CharityHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, store.Charity{IsActive: true}, false)
}

// Create inserts a charity.
func (h *CharityHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminCharities+RouteSuffixNew, "Invalid form submission.")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		flashError(h.renderer, w, r, redirectAdminCharities+RouteSuffixNew, "Name is required.")
		return
	}

	slug, err := uniqueSlug(r.Context(), name, r.PostFormValue("slug"), 0, h.queries.CountCharitiesBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving charity slug", err)
		return
	}

	now := time.Now()
	_, err = h.queries.CreateCharity(r.Context(), store.CreateCharityParams{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Website:     strings.TrimSpace(r.PostFormValue("website")),
		DonationUrl: strings.TrimSpace(r.PostFormValue("donation_url")),
		IsActive:    parseCheckbox(r, "is_active"),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logAndInternalError(w, r, "creating charity", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminCharities, "Charity created.")
}

// EditForm renders the charity edit form.
func (h *CharityHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	charity, ok := h.loadCharity(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, charity, true)
}

// Update saves charity changes.
func (h *CharityHandler) Update(w http.ResponseWriter, r *http.Request) {
	charity, ok := h.loadCharity(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminCharities, "Invalid form submission.")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		flashError(h.renderer, w, r, redirectAdminCharities, "Name is required.")
		return
	}

	slug, err := uniqueSlug(r.Context(), name, r.PostFormValue("slug"), charity.ID, h.queries.CountCharitiesBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving charity slug", err)
		return
	}

	_, err = h.queries.UpdateCharity(r.Context(), store.UpdateCharityParams{
		ID:          charity.ID,
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Website:     strings.TrimSpace(r.PostFormValue("website")),
		DonationUrl: strings.TrimSpace(r.PostFormValue("donation_url")),
		IsActive:    parseCheckbox(r, "is_active"),
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		logAndInternalError(w, r, "updating charity", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminCharities, "Charity updated.")
}

// Toggle flips the active flag.
func (h *CharityHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	charity, ok := h.loadCharity(w, r)
	if !ok {
		return
	}

	if err := h.queries.SetCharityActive(r.Context(), charity.ID, !charity.IsActive, time.Now()); err != nil {
		logAndInternalError(w, r, "toggling charity", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminCharities, "Charity updated.")
}

// Delete removes a charity. Campaigns keep their rows with the charity
// reference nulled by the schema.
func (h *CharityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	charity, ok := h.loadCharity(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteCharity(r.Context(), charity.ID); err != nil {
		logAndInternalError(w, r, "deleting charity", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminCharities, "Charity deleted.")
}

func (h *CharityHandler) loadCharity(w http.ResponseWriter, r *http.Request) (store.Charity, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminCharities, "Invalid charity.")
		return store.Charity{}, false
	}

	charity, err := h.queries.GetCharityByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(h.renderer, w, r, redirectAdminCharities, "Charity not found.")
			return store.Charity{}, false
		}
		logAndInternalError(w, r, "loading charity", err)
		return store.Charity{}, false
	}
	return charity, true
}

func (h *CharityHandler) renderForm(w http.ResponseWriter, r *http.Request, charity store.Charity, editing bool) {
	title := "New Charity"
	if editing {
		title = "Edit Charity"
	}

	err := h.renderer.Render(w, r, "admin/charity_form", render.TemplateData{
		Title:    title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Charity store.Charity
			Editing bool
		}{charity, editing},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Charities", URL: redirectAdminCharities},
			{Label: title, URL: ""},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering charity form", err)
	}
}
