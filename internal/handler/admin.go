// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"html/template"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/whitstable-shop/site/internal/charts"
	"github.com/whitstable-shop/site/internal/middleware"
	"github.com/whitstable-shop/site/internal/render"
	"github.com/whitstable-shop/site/internal/service"
	"github.com/whitstable-shop/site/internal/store"
)

// AdminHandler serves the admin dashboard.
type AdminHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	analytics      *service.AnalyticsService
}

// NewAdminHandler creates an admin dashboard handler.
func NewAdminHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *AdminHandler {
	return &AdminHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		analytics:      service.NewAnalyticsService(db),
	}
}

type dashboardData struct {
	Stats         *service.DashboardStats
	CategoryChart template.HTML
	ActivityChart template.HTML
	StatusChart   template.HTML
}

// Dashboard renders the analytics overview with server-side charts.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.DashboardStats(r.Context())
	if err != nil {
		logAndInternalError(w, r, "loading dashboard stats", err)
		return
	}

	categoryChart, err := charts.CategoryBar(stats.CategoryCounts)
	if err != nil {
		logAndInternalError(w, r, "rendering category chart", err)
		return
	}
	activityChart, err := charts.ActivityLine(stats.WeeklyActivity)
	if err != nil {
		logAndInternalError(w, r, "rendering activity chart", err)
		return
	}
	statusChart, err := charts.StatusDonut(stats.PendingShops, stats.ApprovedShops, stats.RejectedShops)
	if err != nil {
		logAndInternalError(w, r, "rendering status chart", err)
		return
	}

	err = h.renderer.Render(w, r, "admin/dashboard", render.TemplateData{
		Title:    "Dashboard",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: dashboardData{
			Stats:         stats,
			CategoryChart: categoryChart,
			ActivityChart: activityChart,
			StatusChart:   statusChart,
		},
		Breadcrumbs: []render.Breadcrumb{{Label: "Dashboard", URL: redirectAdmin}},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering dashboard", err)
	}
}
