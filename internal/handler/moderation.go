// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/whitstable-shop/site/internal/middleware"
	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/render"
	"github.com/whitstable-shop/site/internal/service"
	"github.com/whitstable-shop/site/internal/store"
)

// ModerationHandler serves the unified moderation queue. Accessible to
// moderators and admins.
type ModerationHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	moderation     *service.ModerationService
	audit          *service.AuditService
}

// NewModerationHandler creates a moderation handler.
func NewModerationHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, moderation *service.ModerationService, audit *service.AuditService) *ModerationHandler {
	return &ModerationHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		moderation:     moderation,
		audit:          audit,
	}
}

// Queue shows pending shops and reviews merged into one list, newest
// first. The type query param narrows to one tab.
func (h *ModerationHandler) Queue(w http.ResponseWriter, r *http.Request) {
	typeFilter := r.URL.Query().Get("type")
	if typeFilter != "" && !model.ValidContentType(typeFilter) {
		typeFilter = ""
	}

	items, err := h.moderation.Queue(r.Context(), typeFilter)
	if err != nil {
		logAndInternalError(w, r, "loading moderation queue", err)
		return
	}

	page, pagination := Paginate(items, ParsePageParam(r), DefaultPageSize)

	err = h.renderer.Render(w, r, "admin/moderation", render.TemplateData{
		Title:    "Moderation Queue",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Items      []model.ModerationItem
			TypeFilter string
			Pagination Pagination
		}{page, typeFilter, pagination},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Moderation", URL: redirectAdminModeration},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering moderation queue", err)
	}
}

// Act approves or rejects a single queue entry.
func (h *ModerationHandler) Act(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminModeration, "Invalid form submission.")
		return
	}

	action := r.PostFormValue("action")
	contentType := r.PostFormValue("type")
	id, err := parseFormInt64(r, "id")
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminModeration, "Invalid queue entry.")
		return
	}

	if err := h.moderation.Act(r.Context(), action, contentType, id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			flashError(h.renderer, w, r, redirectAdminModeration, "That entry is no longer in the queue.")
		case errors.Is(err, service.ErrInvalidInput):
			flashError(h.renderer, w, r, redirectAdminModeration, "Invalid moderation action.")
		default:
			logAndInternalError(w, r, "applying moderation action", err)
		}
		return
	}

	_ = h.audit.LogModeration(r.Context(), model.EventLevelInfo,
		"Moderation: "+action+" "+contentType+" "+strconv.FormatInt(id, 10),
		middleware.GetUserIDNull(r), clientIP(r),
		map[string]any{"action": action, "type": contentType, "id": id})

	flashAndRedirect(h.renderer, w, r, redirectAdminModeration, "Done.")
}

// BulkAct applies one action to every selected queue entry, all or
// nothing. Selections come in as "type:id" form values.
func (h *ModerationHandler) BulkAct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminModeration, "Invalid form submission.")
		return
	}

	action := r.PostFormValue("action")
	refs, err := parseModerationRefs(r.PostForm["selected"])
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminModeration, "Invalid selection.")
		return
	}
	if len(refs) == 0 {
		flashError(h.renderer, w, r, redirectAdminModeration, "Nothing selected.")
		return
	}

	if err := h.moderation.BulkAct(r.Context(), action, refs); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			flashError(h.renderer, w, r, redirectAdminModeration, "One of the selected entries no longer exists. Nothing was changed.")
		case errors.Is(err, service.ErrInvalidInput):
			flashError(h.renderer, w, r, redirectAdminModeration, "Invalid moderation action.")
		default:
			logAndInternalError(w, r, "applying bulk moderation", err)
		}
		return
	}

	_ = h.audit.LogModeration(r.Context(), model.EventLevelInfo,
		"Bulk moderation: "+action+" applied to "+strconv.Itoa(len(refs))+" entries",
		middleware.GetUserIDNull(r), clientIP(r),
		map[string]any{"action": action, "count": len(refs)})

	flashAndRedirect(h.renderer, w, r, redirectAdminModeration, "Selection processed.")
}

// parseModerationRefs decodes "type:id" checkbox values.
func parseModerationRefs(values []string) ([]model.ModerationRef, error) {
	refs := make([]model.ModerationRef, 0, len(values))
	for _, v := range values {
		contentType, idStr, ok := strings.Cut(v, ":")
		if !ok || !model.ValidContentType(contentType) {
			return nil, errors.New("malformed selection value")
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id < 1 {
			return nil, errors.New("malformed selection value")
		}
		refs = append(refs, model.ModerationRef{ID: id, Type: contentType})
	}
	return refs, nil
}
