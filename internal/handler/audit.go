// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/whitstable-shop/site/internal/middleware"
	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/render"
	"github.com/whitstable-shop/site/internal/store"
)

// AuditHandler serves the audit log viewer. Admin only.
type AuditHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewAuditHandler creates an audit log handler.
func NewAuditHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *AuditHandler {
	return &AuditHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
	}
}

// auditEventView pairs an event with its metadata flattened for display.
type auditEventView struct {
	store.AuditEvent
	MetadataText string
}

// List shows audit events, newest first, filterable by level and
// category.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")
	if level != model.EventLevelInfo && level != model.EventLevelWarning && level != model.EventLevelError {
		level = ""
	}
	category := r.URL.Query().Get("category")
	if !validCategory(category) {
		category = ""
	}

	page := ParsePageParam(r)

	total, err := h.queries.CountAuditEvents(r.Context(), level, category)
	if err != nil {
		logAndInternalError(w, r, "counting audit events", err)
		return
	}

	events, err := h.queries.ListAuditEvents(r.Context(), store.ListAuditEventsParams{
		Level:    level,
		Category: category,
		Limit:    DefaultPageSize,
		Offset:   int64(page-1) * DefaultPageSize,
	})
	if err != nil {
		logAndInternalError(w, r, "listing audit events", err)
		return
	}

	views := make([]auditEventView, len(events))
	for i, event := range events {
		views[i] = auditEventView{AuditEvent: event, MetadataText: formatMetadata(event.Metadata)}
	}

	totalPages := int((total + DefaultPageSize - 1) / DefaultPageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	err = h.renderer.Render(w, r, "admin/audit", render.TemplateData{
		Title:    "Audit Log",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Events     []auditEventView
			Level      string
			Category   string
			Categories []string
			Pagination Pagination
		}{
			Events:     views,
			Level:      level,
			Category:   category,
			Categories: allCategories(),
			Pagination: Pagination{
				Page:       page,
				PerPage:    DefaultPageSize,
				Total:      int(total),
				TotalPages: totalPages,
				HasPrev:    page > 1,
				HasNext:    page < totalPages,
				PrevPage:   page - 1,
				NextPage:   page + 1,
			},
		},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Audit Log", URL: redirectAdmin + RouteAudit},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering audit log", err)
	}
}

func validCategory(c string) bool {
	switch c {
	case model.EventCategoryAuth, model.EventCategoryDirectory, model.EventCategoryModeration,
		model.EventCategoryUser, model.EventCategoryConfig, model.EventCategorySystem:
		return true
	}
	return false
}

func allCategories() []string {
	return []string{
		model.EventCategoryAuth,
		model.EventCategoryDirectory,
		model.EventCategoryModeration,
		model.EventCategoryUser,
		model.EventCategoryConfig,
		model.EventCategorySystem,
	}
}

// formatMetadata flattens an event's metadata JSON into "key: value"
// pairs sorted by key, for the log table.
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(metadata), &decoded); err != nil {
		return metadata
	}

	keys := make([]string, 0, len(decoded))
	for k := range decoded {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, decoded[k]))
	}
	return strings.Join(parts, ", ")
}
