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
	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/render"
	"github.com/whitstable-shop/site/internal/service"
	"github.com/whitstable-shop/site/internal/store"
	"github.com/whitstable-shop/site/internal/util"
)

// ShopHandler manages directory entries in the back office.
type ShopHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	audit          *service.AuditService
}

// NewShopHandler creates a shop handler.
func NewShopHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, audit *service.AuditService) *ShopHandler {
	return &ShopHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		audit:          audit,
	}
}

type shopListData struct {
	Shops         []store.Shop
	Categories    map[int64]string
	Search        string
	Status        string
	Pagination    Pagination
	ConfirmDelete int64
}

// List shows shops with an optional status filter and name search.
func (h *ShopHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	var (
		shops []store.Shop
		err   error
	)
	if status != "" {
		shops, err = h.queries.ListShopsByStatus(r.Context(), status)
	} else {
		shops, err = h.queries.ListShops(r.Context())
	}
	if err != nil {
		logAndInternalError(w, r, "listing shops", err)
		return
	}

	search := strings.TrimSpace(r.URL.Query().Get("q"))
	if search != "" {
		filtered := make([]store.Shop, 0, len(shops))
		for _, s := range shops {
			if util.MatchesSearch(s.Name+" "+s.Address, search) {
				filtered = append(filtered, s)
			}
		}
		shops = filtered
	}

	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing categories", err)
		return
	}
	categoryNames := make(map[int64]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	page, pagination := Paginate(shops, ParsePageParam(r), DefaultPageSize)

	err = h.renderer.Render(w, r, "admin/shops", render.TemplateData{
		Title:    "Shops",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: shopListData{
			Shops:         page,
			Categories:    categoryNames,
			Search:        search,
			Status:        status,
			Pagination:    pagination,
			ConfirmDelete: confirmDeleteID(r),
		},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Shops", URL: redirectAdminShops},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering shops", err)
	}
}

// NewForm renders the shop create form.
func (h *ShopHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, store.Shop{Status: model.StatusApproved, IsActive: true}, false)
}

// Create inserts a shop. Admin-created shops skip the moderation queue
// and go straight to approved.
func (h *ShopHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminShops+RouteSuffixNew, "Invalid form submission.")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		flashError(h.renderer, w, r, redirectAdminShops+RouteSuffixNew, "Name is required.")
		return
	}

	slug, err := uniqueSlug(r.Context(), name, r.PostFormValue("slug"), 0, h.queries.CountShopsBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving shop slug", err)
		return
	}

	now := time.Now()
	shop, err := h.queries.CreateShop(r.Context(), store.CreateShopParams{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(r.PostFormValue("description")),
		CategoryID:  util.ParseNullInt64(r.PostFormValue("category_id")),
		Address:     strings.TrimSpace(r.PostFormValue("address")),
		Phone:       strings.TrimSpace(r.PostFormValue("phone")),
		Website:     strings.TrimSpace(r.PostFormValue("website")),
		Latitude:    util.ParseNullFloat64(r.PostFormValue("latitude")),
		Longitude:   util.ParseNullFloat64(r.PostFormValue("longitude")),
		ImageUrl:    strings.TrimSpace(r.PostFormValue("image_url")),
		Status:      model.StatusApproved,
		IsFeatured:  parseCheckbox(r, "is_featured"),
		IsActive:    parseCheckbox(r, "is_active"),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logAndInternalError(w, r, "creating shop", err)
		return
	}

	_ = h.audit.LogInfo(r.Context(), model.EventCategoryDirectory, "Shop created: "+shop.Name,
		middleware.GetUserIDNull(r), clientIP(r), map[string]any{"shop_id": shop.ID})

	flashAndRedirect(h.renderer, w, r, redirectAdminShops, "Shop created.")
}

// EditForm renders the shop edit form.
func (h *ShopHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	shop, ok := h.loadShop(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, shop, true)
}

// Update saves shop field changes. Moderation status is deliberately
// not part of this form; it only moves via SetStatus or the queue.
func (h *ShopHandler) Update(w http.ResponseWriter, r *http.Request) {
	shop, ok := h.loadShop(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminShops, "Invalid form submission.")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		flashError(h.renderer, w, r, redirectAdminShops, "Name is required.")
		return
	}

	slug, err := uniqueSlug(r.Context(), name, r.PostFormValue("slug"), shop.ID, h.queries.CountShopsBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving shop slug", err)
		return
	}

	_, err = h.queries.UpdateShop(r.Context(), store.UpdateShopParams{
		ID:          shop.ID,
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(r.PostFormValue("description")),
		CategoryID:  util.ParseNullInt64(r.PostFormValue("category_id")),
		Address:     strings.TrimSpace(r.PostFormValue("address")),
		Phone:       strings.TrimSpace(r.PostFormValue("phone")),
		Website:     strings.TrimSpace(r.PostFormValue("website")),
		Latitude:    util.ParseNullFloat64(r.PostFormValue("latitude")),
		Longitude:   util.ParseNullFloat64(r.PostFormValue("longitude")),
		ImageUrl:    strings.TrimSpace(r.PostFormValue("image_url")),
		IsFeatured:  parseCheckbox(r, "is_featured"),
		IsActive:    parseCheckbox(r, "is_active"),
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		logAndInternalError(w, r, "updating shop", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminShops, "Shop updated.")
}

// SetStatus moves a shop between moderation statuses directly, outside
// the queue.
func (h *ShopHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	shop, ok := h.loadShop(w, r)
	if !ok {
		return
	}

	status := r.PostFormValue("status")
	if status != model.StatusPending && status != model.StatusApproved && status != model.StatusRejected {
		flashError(h.renderer, w, r, redirectAdminShops, "Invalid status.")
		return
	}

	if err := h.queries.UpdateShopStatus(r.Context(), shop.ID, status, time.Now()); err != nil {
		logAndInternalError(w, r, "updating shop status", err)
		return
	}

	_ = h.audit.LogModeration(r.Context(), model.EventLevelInfo, "Shop status set to "+status+": "+shop.Name,
		middleware.GetUserIDNull(r), clientIP(r), map[string]any{"shop_id": shop.ID, "status": status})

	flashAndRedirect(h.renderer, w, r, redirectAdminShops, "Shop status updated.")
}

// ToggleFeatured flips the home-page featured flag.
func (h *ShopHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	shop, ok := h.loadShop(w, r)
	if !ok {
		return
	}

	if err := h.queries.SetShopFeatured(r.Context(), shop.ID, !shop.IsFeatured, time.Now()); err != nil {
		logAndInternalError(w, r, "toggling featured", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminShops, "Shop updated.")
}

// Toggle flips the active flag.
func (h *ShopHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	shop, ok := h.loadShop(w, r)
	if !ok {
		return
	}

	if err := h.queries.SetShopActive(r.Context(), shop.ID, !shop.IsActive, time.Now()); err != nil {
		logAndInternalError(w, r, "toggling shop", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminShops, "Shop updated.")
}

// Delete removes a shop and, via the schema's cascade, its reviews.
func (h *ShopHandler) Delete(w http.ResponseWriter, r *http.Request) {
	shop, ok := h.loadShop(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteShop(r.Context(), shop.ID); err != nil {
		logAndInternalError(w, r, "deleting shop", err)
		return
	}

	_ = h.audit.LogWarning(r.Context(), model.EventCategoryDirectory, "Shop deleted: "+shop.Name,
		middleware.GetUserIDNull(r), clientIP(r), map[string]any{"shop_id": shop.ID})

	flashAndRedirect(h.renderer, w, r, redirectAdminShops, "Shop deleted.")
}

func (h *ShopHandler) loadShop(w http.ResponseWriter, r *http.Request) (store.Shop, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminShops, "Invalid shop.")
		return store.Shop{}, false
	}

	shop, err := h.queries.GetShopByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(h.renderer, w, r, redirectAdminShops, "Shop not found.")
			return store.Shop{}, false
		}
		logAndInternalError(w, r, "loading shop", err)
		return store.Shop{}, false
	}
	return shop, true
}

func (h *ShopHandler) renderForm(w http.ResponseWriter, r *http.Request, shop store.Shop, editing bool) {
	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing categories", err)
		return
	}

	title := "New Shop"
	if editing {
		title = "Edit Shop"
	}

	err = h.renderer.Render(w, r, "admin/shop_form", render.TemplateData{
		Title:    title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Shop       store.Shop
			Categories []store.Category
			Editing    bool
		}{shop, categories, editing},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Shops", URL: redirectAdminShops},
			{Label: title, URL: ""},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering shop form", err)
	}
}
