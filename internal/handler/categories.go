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
	"github.com/whitstable-shop/site/internal/util"
)

// CategoryHandler manages directory categories in the back office.
type CategoryHandler struct {
	db             *sql.DB
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	cacheManager   *cache.Manager
}

// NewCategoryHandler creates a category handler.
func NewCategoryHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, cm *cache.Manager) *CategoryHandler {
	return &CategoryHandler{
		db:             db,
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		cacheManager:   cm,
	}
}

type categoryListData struct {
	Categories    []store.Category
	Search        string
	Pagination    Pagination
	ConfirmDelete int64
}

// List shows all categories ordered by sort order.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing categories", err)
		return
	}

	search := strings.TrimSpace(r.URL.Query().Get("q"))
	if search != "" {
		filtered := make([]store.Category, 0, len(categories))
		for _, c := range categories {
			if util.MatchesSearch(c.Name+" "+c.Description, search) {
				filtered = append(filtered, c)
			}
		}
		categories = filtered
	}

	page, pagination := Paginate(categories, ParsePageParam(r), DefaultPageSize)

	err = h.renderer.Render(w, r, "admin/categories", render.TemplateData{
		Title:    "Categories",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: categoryListData{
			Categories:    page,
			Search:        search,
			Pagination:    pagination,
			ConfirmDelete: confirmDeleteID(r),
		},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Categories", URL: redirectAdminCategories},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering categories", err)
	}
}

// NewForm renders the category create form.
func (h *CategoryHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, store.Category{IsActive: true}, false)
}

// Create inserts a category. New categories append at the end of the
// sort order; absent slug derives from the name.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminCategories+RouteSuffixNew, "Invalid form submission.")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		flashError(h.renderer, w, r, redirectAdminCategories+RouteSuffixNew, "Name is required.")
		return
	}

	slug, err := uniqueSlug(r.Context(), name, r.PostFormValue("slug"), 0, h.queries.CountCategoriesBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving category slug", err)
		return
	}

	maxOrder, err := h.queries.MaxCategorySortOrder(r.Context())
	if err != nil {
		logAndInternalError(w, r, "reading max sort order", err)
		return
	}

	now := time.Now()
	_, err = h.queries.CreateCategory(r.Context(), store.CreateCategoryParams{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Icon:        strings.TrimSpace(r.PostFormValue("icon")),
		SortOrder:   maxOrder + 1,
		IsActive:    parseCheckbox(r, "is_active"),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logAndInternalError(w, r, "creating category", err)
		return
	}

	h.cacheManager.InvalidateCategories(r.Context())
	flashAndRedirect(h.renderer, w, r, redirectAdminCategories, "Category created.")
}

// EditForm renders the category edit form.
func (h *CategoryHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	category, ok := h.loadCategory(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, category, true)
}

// Update saves category changes. Sort order is managed via Reorder and
// is left untouched here.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	category, ok := h.loadCategory(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminCategories, "Invalid form submission.")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		flashError(h.renderer, w, r, redirectAdminCategories, "Name is required.")
		return
	}

	slug, err := uniqueSlug(r.Context(), name, r.PostFormValue("slug"), category.ID, h.queries.CountCategoriesBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving category slug", err)
		return
	}

	_, err = h.queries.UpdateCategory(r.Context(), store.UpdateCategoryParams{
		ID:          category.ID,
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Icon:        strings.TrimSpace(r.PostFormValue("icon")),
		IsActive:    parseCheckbox(r, "is_active"),
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		logAndInternalError(w, r, "updating category", err)
		return
	}

	h.cacheManager.InvalidateCategories(r.Context())
	flashAndRedirect(h.renderer, w, r, redirectAdminCategories, "Category updated.")
}

// Toggle flips the active flag.
func (h *CategoryHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	category, ok := h.loadCategory(w, r)
	if !ok {
		return
	}

	if err := h.queries.SetCategoryActive(r.Context(), category.ID, !category.IsActive, time.Now()); err != nil {
		logAndInternalError(w, r, "toggling category", err)
		return
	}

	h.cacheManager.InvalidateCategories(r.Context())
	flashAndRedirect(h.renderer, w, r, redirectAdminCategories, "Category updated.")
}

// Reorder swaps the category's sort order with its neighbour in the
// given direction. At either end of the list it is a no-op. Both rows
// change in one transaction so the ordering never half-applies.
func (h *CategoryHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	category, ok := h.loadCategory(w, r)
	if !ok {
		return
	}

	direction := r.PostFormValue("direction")
	if direction != "up" && direction != "down" {
		flashError(h.renderer, w, r, redirectAdminCategories, "Invalid direction.")
		return
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		logAndInternalError(w, r, "starting transaction", err)
		return
	}
	defer func() { _ = tx.Rollback() }()

	qtx := h.queries.WithTx(tx)
	categories, err := qtx.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing categories", err)
		return
	}

	idx := -1
	for i, c := range categories {
		if c.ID == category.ID {
			idx = i
			break
		}
	}

	swapWith := -1
	switch {
	case direction == "up" && idx > 0:
		swapWith = idx - 1
	case direction == "down" && idx >= 0 && idx < len(categories)-1:
		swapWith = idx + 1
	}
	if swapWith < 0 {
		// Already at the edge, nothing to do
		http.Redirect(w, r, redirectAdminCategories, http.StatusSeeOther)
		return
	}

	now := time.Now()
	a, b := categories[idx], categories[swapWith]
	if err := qtx.UpdateCategorySortOrder(r.Context(), a.ID, b.SortOrder, now); err != nil {
		logAndInternalError(w, r, "reordering category", err)
		return
	}
	if err := qtx.UpdateCategorySortOrder(r.Context(), b.ID, a.SortOrder, now); err != nil {
		logAndInternalError(w, r, "reordering category", err)
		return
	}
	if err := tx.Commit(); err != nil {
		logAndInternalError(w, r, "committing reorder", err)
		return
	}

	h.cacheManager.InvalidateCategories(r.Context())
	http.Redirect(w, r, redirectAdminCategories, http.StatusSeeOther)
}

// Delete removes a category. Shops keep their rows; the foreign key is
// nulled by the schema so they fall back to Uncategorised.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	category, ok := h.loadCategory(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteCategory(r.Context(), category.ID); err != nil {
		logAndInternalError(w, r, "deleting category", err)
		return
	}

	h.cacheManager.InvalidateCategories(r.Context())
	flashAndRedirect(h.renderer, w, r, redirectAdminCategories, "Category deleted.")
}

func (h *CategoryHandler) loadCategory(w http.ResponseWriter, r *http.Request) (store.Category, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminCategories, "Invalid category.")
		return store.Category{}, false
	}

	category, err := h.queries.GetCategoryByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(h.renderer, w, r, redirectAdminCategories, "Category not found.")
			return store.Category{}, false
		}
		logAndInternalError(w, r, "loading category", err)
		return store.Category{}, false
	}
	return category, true
}

func (h *CategoryHandler) renderForm(w http.ResponseWriter, r *http.Request, category store.Category, editing bool) {
	title := "New Category"
	if editing {
		title = "Edit Category"
	}

	err := h.renderer.Render(w, r, "admin/category_form", render.TemplateData{
		Title:    title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Category store.Category
			Editing  bool
		}{category, editing},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Categories", URL: redirectAdminCategories},
			{Label: title, URL: ""},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering category form", err)
	}
}
