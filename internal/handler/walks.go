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

// WalkHandler manages community dog walks in the back office.
type WalkHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewWalkHandler creates a dog walk handler.
func NewWalkHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *WalkHandler {
	return &WalkHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
	}
}

// List shows all walks with attendance counts.
func (h *WalkHandler) List(w http.ResponseWriter, r *http.Request) {
	walks, err := h.queries.ListDogWalks(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing walks", err)
		return
	}

	attendance := make(map[int64]int64, len(walks))
	for _, walk := range walks {
		count, err := h.queries.CountWalkAttendance(r.Context(), walk.ID)
		if err != nil {
			logAndInternalError(w, r, "counting attendance", err)
			return
		}
		attendance[walk.ID] = count
	}

	err = h.renderer.Render(w, r, "admin/walks", render.TemplateData{
		Title:    "Dog Walks",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Walks         []store.DogWalk
			Attendance    map[int64]int64
			ConfirmDelete int64
		}{walks, attendance, confirmDeleteID(r)},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Dog Walks", URL: redirectAdminWalks},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering walks", err)
	}
}

// NewForm renders the walk create form.
func (h *WalkHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, store.DogWalk{IsActive: true}, false)
}

// Create inserts a walk.
func (h *WalkHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminWalks+RouteSuffixNew, "Invalid form submission.")
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	if title == "" {
		flashError(h.renderer, w, r, redirectAdminWalks+RouteSuffixNew, "Title is required.")
		return
	}

	walkDate, err := parseDateTimeLocal(r.PostFormValue("walk_date"))
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminWalks+RouteSuffixNew, "A valid walk date is required.")
		return
	}

	now := time.Now()
	_, err = h.queries.CreateDogWalk(r.Context(), store.CreateDogWalkParams{
		Title:        title,
		WalkDate:     walkDate,
		MeetingPoint: strings.TrimSpace(r.PostFormValue("meeting_point")),
		IsActive:     parseCheckbox(r, "is_active"),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		logAndInternalError(w, r, "creating walk", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminWalks, "Walk created.")
}

// EditForm renders the walk edit form.
func (h *WalkHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	walk, ok := h.loadWalk(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, walk, true)
}

// Update saves walk changes.
func (h *WalkHandler) Update(w http.ResponseWriter, r *http.Request) {
	walk, ok := h.loadWalk(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminWalks, "Invalid form submission.")
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	if title == "" {
		flashError(h.renderer, w, r, redirectAdminWalks, "Title is required.")
		return
	}

	walkDate, err := parseDateTimeLocal(r.PostFormValue("walk_date"))
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminWalks, "A valid walk date is required.")
		return
	}

	_, err = h.queries.UpdateDogWalk(r.Context(), store.UpdateDogWalkParams{
		ID:           walk.ID,
		Title:        title,
		WalkDate:     walkDate,
		MeetingPoint: strings.TrimSpace(r.PostFormValue("meeting_point")),
		IsActive:     parseCheckbox(r, "is_active"),
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		logAndInternalError(w, r, "updating walk", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminWalks, "Walk updated.")
}

// Toggle flips the active flag.
func (h *WalkHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	walk, ok := h.loadWalk(w, r)
	if !ok {
		return
	}

	if err := h.queries.SetDogWalkActive(r.Context(), walk.ID, !walk.IsActive, time.Now()); err != nil {
		logAndInternalError(w, r, "toggling walk", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminWalks, "Walk updated.")
}

// Delete removes a walk and, via the schema's cascade, its attendance.
func (h *WalkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	walk, ok := h.loadWalk(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteDogWalk(r.Context(), walk.ID); err != nil {
		logAndInternalError(w, r, "deleting walk", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminWalks, "Walk deleted.")
}

// Attendance shows who has signed up for a walk.
func (h *WalkHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	walk, ok := h.loadWalk(w, r)
	if !ok {
		return
	}

	attendees, err := h.queries.ListWalkAttendance(r.Context(), walk.ID)
	if err != nil {
		logAndInternalError(w, r, "listing attendance", err)
		return
	}

	err = h.renderer.Render(w, r, "admin/walk_attendance", render.TemplateData{
		Title:    "Attendance: " + walk.Title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Walk      store.DogWalk
			Attendees []store.WalkAttendance
		}{walk, attendees},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Dog Walks", URL: redirectAdminWalks},
			{Label: walk.Title, URL: ""},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering attendance", err)
	}
}

func (h *WalkHandler) loadWalk(w http.ResponseWriter, r *http.Request) (store.DogWalk, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminWalks, "Invalid walk.")
		return store.DogWalk{}, false
	}

	walk, err := h.queries.GetDogWalkByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(h.renderer, w, r, redirectAdminWalks, "Walk not found.")
			return store.DogWalk{}, false
		}
		logAndInternalError(w, r, "loading walk", err)
		return store.DogWalk{}, false
	}
	return walk, true
}

func (h *WalkHandler) renderForm(w http.ResponseWriter, r *http.Request, walk store.DogWalk, editing bool) {
	title := "New Walk"
	if editing {
		title = "Edit Walk"
	}

	err := h.renderer.Render(w, r, "admin/walk_form", render.TemplateData{
		Title:    title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Walk    store.DogWalk
			Editing bool
		}{walk, editing},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Dog Walks", URL: redirectAdminWalks},
			{Label: title, URL: ""},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering walk form", err)
	}
}
