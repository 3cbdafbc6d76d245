// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/whitstable-shop/site/internal/middleware"
	"github.com/whitstable-shop/site/internal/render"
	"github.com/whitstable-shop/site/internal/store"
	"github.com/whitstable-shop/site/internal/util"
)

// CampaignHandler manages fundraising campaigns in the back office.
type CampaignHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewCampaignHandler creates a campaign handler.
func NewCampaignHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *CampaignHandler {
	return &CampaignHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
	}
}

// List shows all campaigns.
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.queries.ListCampaigns(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing campaigns", err)
		return
	}

	charities, err := h.queries.ListCharities(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing charities", err)
		return
	}
	charityNames := make(map[int64]string, len(charities))
	for _, c := range charities {
		charityNames[c.ID] = c.Name
	}

	page, pagination := Paginate(campaigns, ParsePageParam(r), DefaultPageSize)

	err = h.renderer.Render(w, r, "admin/campaigns", render.TemplateData{
		Title:    "Campaigns",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Campaigns     []store.Campaign
			CharityNames  map[int64]string
			Pagination    Pagination
			ConfirmDelete int64
		}{page, charityNames, pagination, confirmDeleteID(r)},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Campaigns", URL: redirectAdminCampaigns},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering campaigns", err)
	}
}

// NewForm renders the campaign create form.
func (h *CampaignHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, store.Campaign{IsActive: true}, false)
}

// Create inserts a campaign. The goal is entered in pounds and stored
// in pence to keep the column integral.
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminCampaigns+RouteSuffixNew, "Invalid form submission.")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		flashError(h.renderer, w, r, redirectAdminCampaigns+RouteSuffixNew, "Name is required.")
		return
	}

	goalPence, ok := parseGoalPence(r.PostFormValue("goal_pounds"))
	if !ok {
		flashError(h.renderer, w, r, redirectAdminCampaigns+RouteSuffixNew, "Goal must be a positive amount.")
		return
	}

	slug, err := uniqueSlug(r.Context(), name, r.PostFormValue("slug"), 0, h.queries.CountCampaignsBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving campaign slug", err)
		return
	}

	now := time.Now()
	_, err = h.queries.CreateCampaign(r.Context(), store.CreateCampaignParams{
		CharityID:   util.ParseNullInt64(r.PostFormValue("charity_id")),
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(r.PostFormValue("description")),
		GoalPence:   goalPence,
		StartsAt:    parseNullDateTimeLocal(r.PostFormValue("starts_at")),
		EndsAt:      parseNullDateTimeLocal(r.PostFormValue("ends_at")),
		IsActive:    parseCheckbox(r, "is_active"),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logAndInternalError(w, r, "creating campaign", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminCampaigns, "Campaign created.")
}

// EditForm renders the campaign edit form.
func (h *CampaignHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	campaign, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, campaign, true)
}

// Update saves campaign changes.
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	campaign, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminCampaigns, "Invalid form submission.")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		flashError(h.renderer, w, r, redirectAdminCampaigns, "Name is required.")
		return
	}

	goalPence, goalOK := parseGoalPence(r.PostFormValue("goal_pounds"))
	if !goalOK {
		flashError(h.renderer, w, r, redirectAdminCampaigns, "Goal must be a positive amount.")
		return
	}

	slug, err := uniqueSlug(r.Context(), name, r.PostFormValue("slug"), campaign.ID, h.queries.CountCampaignsBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving campaign slug", err)
		return
	}

	_, err = h.queries.UpdateCampaign(r.Context(), store.UpdateCampaignParams{
		ID:          campaign.ID,
		CharityID:   util.ParseNullInt64(r.PostFormValue("charity_id")),
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(r.PostFormValue("description")),
		GoalPence:   goalPence,
		StartsAt:    parseNullDateTimeLocal(r.PostFormValue("starts_at")),
		EndsAt:      parseNullDateTimeLocal(r.PostFormValue("ends_at")),
		IsActive:    parseCheckbox(r, "is_active"),
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		logAndInternalError(w, r, "updating campaign", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminCampaigns, "Campaign updated.")
}

// Toggle flips the active flag.
func (h *CampaignHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	campaign, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}

	if err := h.queries.SetCampaignActive(r.Context(), campaign.ID, !campaign.IsActive, time.Now()); err != nil {
		logAndInternalError(w, r, "toggling campaign", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminCampaigns, "Campaign updated.")
}

// Delete removes a campaign.
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	campaign, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteCampaign(r.Context(), campaign.ID); err != nil {
		logAndInternalError(w, r, "deleting campaign", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminCampaigns, "Campaign deleted.")
}

// parseGoalPence converts a pounds amount to pence. Empty is allowed
// and means no public goal.
func parseGoalPence(s string) (sql.NullInt64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullInt64{}, true
	}
	pounds, err := strconv.ParseFloat(s, 64)
	if err != nil || pounds <= 0 {
		return sql.NullInt64{}, false
	}
	return sql.NullInt64{Int64: int64(pounds*100 + 0.5), Valid: true}, true
}

func (h *CampaignHandler) loadCampaign(w http.ResponseWriter, r *http.Request) (store.Campaign, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminCampaigns, "Invalid campaign.")
		return store.Campaign{}, false
	}

	campaign, err := h.queries.GetCampaignByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(h.renderer, w, r, redirectAdminCampaigns, "Campaign not found.")
			return store.Campaign{}, false
		}
		logAndInternalError(w, r, "loading campaign", err)
		return store.Campaign{}, false
	}
	return campaign, true
}

func (h *CampaignHandler) renderForm(w http.ResponseWriter, r *http.Request, campaign store.Campaign, editing bool) {
	charities, err := h.queries.ListCharities(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing charities", err)
		return
	}

	title := "New Campaign"
	if editing {
		title = "Edit Campaign"
	}

	err = h.renderer.Render(w, r, "admin/campaign_form", render.TemplateData{
		Title:    title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Campaign  store.Campaign
			Charities []store.Charity
			Editing   bool
		}{campaign, charities, editing},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Campaigns", URL: redirectAdminCampaigns},
			{Label: title, URL: ""},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering campaign form", err)
	}
}
