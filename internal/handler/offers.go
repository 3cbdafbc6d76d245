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
	"github.com/whitstable-shop/site/internal/util"
)

// OfferHandler manages promotions in the back office.
type OfferHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewOfferHandler creates an offer handler.
func NewOfferHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *OfferHandler {
	return &OfferHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
	}
}

type offerListData struct {
	Offers        []store.Offer
	ShopNames     map[int64]string
	Pagination    Pagination
	ConfirmDelete int64
}

// List shows all offers, newest first.
func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	offers, err := h.queries.ListOffers(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing offers", err)
		return
	}

	shopNames, err := h.shopNames(r)
	if err != nil {
		logAndInternalError(w, r, "listing shops", err)
		return
	}

	page, pagination := Paginate(offers, ParsePageParam(r), DefaultPageSize)

	err = h.renderer.Render(w, r, "admin/offers", render.TemplateData{
		Title:    "Offers",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: offerListData{
			Offers:        page,
			ShopNames:     shopNames,
			Pagination:    pagination,
			ConfirmDelete: confirmDeleteID(r),
		},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Offers", URL: redirectAdminOffers},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering offers", err)
	}
}

// NewForm renders the offer create form.
func (h *OfferHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, store.Offer{IsActive: true}, false)
}

// Create inserts an offer.
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminOffers+RouteSuffixNew, "Invalid form submission.")
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	if title == "" {
		flashError(h.renderer, w, r, redirectAdminOffers+RouteSuffixNew, "Title is required.")
		return
	}

	startsAt := parseNullDateTimeLocal(r.PostFormValue("starts_at"))
	endsAt := parseNullDateTimeLocal(r.PostFormValue("ends_at"))
	if startsAt.Valid && endsAt.Valid && endsAt.Time.Before(startsAt.Time) {
		flashError(h.renderer, w, r, redirectAdminOffers+RouteSuffixNew, "End date must be after the start date.")
		return
	}

	slug, err := uniqueSlug(r.Context(), title, r.PostFormValue("slug"), 0, h.queries.CountOffersBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving offer slug", err)
		return
	}

	now := time.Now()
	_, err = h.queries.CreateOffer(r.Context(), store.CreateOfferParams{
		ShopID:      util.ParseNullInt64(r.PostFormValue("shop_id")),
		Title:       title,
		Slug:        slug,
		Description: strings.TrimSpace(r.PostFormValue("description")),
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		IsActive:    parseCheckbox(r, "is_active"),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logAndInternalError(w, r, "creating offer", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminOffers, "Offer created.")
}

// EditForm renders the offer edit form.
func (h *OfferHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	offer, ok := h.loadOffer(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, offer, true)
}

// Update saves offer changes.
func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	offer, ok := h.loadOffer(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminOffers, "Invalid form submission.")
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	if title == "" {
		flashError(h.renderer, w, r, redirectAdminOffers, "Title is required.")
		return
	}

	startsAt := parseNullDateTimeLocal(r.PostFormValue("starts_at"))
	endsAt := parseNullDateTimeLocal(r.PostFormValue("ends_at"))
	if startsAt.Valid && endsAt.Valid && endsAt.Time.Before(startsAt.Time) {
		flashError(h.renderer, w, r, redirectAdminOffers, "End date must be after the start date.")
		return
	}

	slug, err := uniqueSlug(r.Context(), title, r.PostFormValue("slug"), offer.ID, h.queries.CountOffersBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving offer slug", err)
		return
	}

	_, err = h.queries.UpdateOffer(r.Context(), store.UpdateOfferParams{
		ID:          offer.ID,
		ShopID:      util.ParseNullInt64(r.PostFormValue("shop_id")),
		Title:       title,
		Slug:        slug,
		Description: strings.TrimSpace(r.PostFormValue("description")),
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		IsActive:    parseCheckbox(r, "is_active"),
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		logAndInternalError(w, r, "updating offer", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminOffers, "Offer updated.")
}

// Toggle flips the active flag. Reactivating an expired offer lasts
// until the next scheduler sweep.
func (h *OfferHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	offer, ok := h.loadOffer(w, r)
	if !ok {
		return
	}

	if err := h.queries.SetOfferActive(r.Context(), offer.ID, !offer.IsActive, time.Now()); err != nil {
		logAndInternalError(w, r, "toggling offer", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminOffers, "Offer updated.")
}

// Delete removes an offer.
func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	offer, ok := h.loadOffer(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteOffer(r.Context(), offer.ID); err != nil {
		logAndInternalError(w, r, "deleting offer", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminOffers, "Offer deleted.")
}

func (h *OfferHandler) shopNames(r *http.Request) (map[int64]string, error) {
	shops, err := h.queries.ListShops(r.Context())
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(shops))
	for _, s := range shops {
		names[s.ID] = s.Name
	}
	return names, nil
}

func (h *OfferHandler) loadOffer(w http.ResponseWriter, r *http.Request) (store.Offer, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminOffers, "Invalid offer.")
		return store.Offer{}, false
	}

	offer, err := h.queries.GetOfferByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(h.renderer, w, r, redirectAdminOffers, "Offer not found.")
			return store.Offer{}, false
		}
		logAndInternalError(w, r, "loading offer", err)
		return store.Offer{}, false
	}
	return offer, true
}

func (h *OfferHandler) renderForm(w http.ResponseWriter, r *http.Request, offer store.Offer, editing bool) {
	shops, err := h.queries.ListShops(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing shops", err)
		return
	}

	title := "New Offer"
	if editing {
		title = "Edit Offer"
	}

	err = h.renderer.Render(w, r, "admin/offer_form", render.TemplateData{
		Title:    title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Offer   store.Offer
			Shops   []store.Shop
			Editing bool
		}{offer, shops, editing},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Offers", URL: redirectAdminOffers},
			{Label: title, URL: ""},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering offer form", err)
	}
}
