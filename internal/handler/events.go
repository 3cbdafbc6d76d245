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

// EventHandler manages town calendar events in the back office.
type EventHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewEventHandler creates an event handler.
func NewEventHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *EventHandler {
	return &EventHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
	}
}

type eventListData struct {
	Events        []store.Event
	Search        string
	Pagination    Pagination
	ConfirmDelete int64
}

// List shows all events, soonest first.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.queries.ListEvents(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing events", err)
		return
	}

	search := strings.TrimSpace(r.URL.Query().Get("q"))
	if search != "" {
		filtered := make([]store.Event, 0, len(events))
		for _, e := range events {
			if util.MatchesSearch(e.Title+" "+e.Venue, search) {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	page, pagination := Paginate(events, ParsePageParam(r), DefaultPageSize)

	err = h.renderer.Render(w, r, "admin/events", render.TemplateData{
		Title:    "Events",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: eventListData{
			Events:        page,
			Search:        search,
			Pagination:    pagination,
			ConfirmDelete: confirmDeleteID(r),
		},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Events", URL: redirectAdminEvents},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering events", err)
	}
}

// NewForm renders the event create form.
func (h *EventHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, store.Event{IsActive: true}, false)
}

// Create inserts an event.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminEvents+RouteSuffixNew, "Invalid form submission.")
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	if title == "" {
		flashError(h.renderer, w, r, redirectAdminEvents+RouteSuffixNew, "Title is required.")
		return
	}

	startsAt, err := parseDateTimeLocal(r.PostFormValue("starts_at"))
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminEvents+RouteSuffixNew, "A valid start date is required.")
		return
	}

	endsAt := parseNullDateTimeLocal(r.PostFormValue("ends_at"))
	if endsAt.Valid && endsAt.Time.Before(startsAt) {
		flashError(h.renderer, w, r, redirectAdminEvents+RouteSuffixNew, "End date must be after the start date.")
		return
	}

	slug, err := uniqueSlug(r.Context(), title, r.PostFormValue("slug"), 0, h.queries.CountEventsBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving event slug", err)
		return
	}

	now := time.Now()
	_, err = h.queries.CreateEvent(r.Context(), store.CreateEventParams{
		Title:       title,
		Slug:        slug,
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Venue:       strings.TrimSpace(r.PostFormValue("venue")),
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		IsFeatured:  parseCheckbox(r, "is_featured"),
		IsActive:    parseCheckbox(r, "is_active"),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logAndInternalError(w, r, "creating event", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminEvents, "Event created.")
}

// EditForm renders the event edit form.
func (h *EventHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, event, true)
}

// Update saves event changes.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminEvents, "Invalid form submission.")
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	if title == "" {
		flashError(h.renderer, w, r, redirectAdminEvents, "Title is required.")
		return
	}

	startsAt, err := parseDateTimeLocal(r.PostFormValue("starts_at"))
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminEvents, "A valid start date is required.")
		return
	}

	endsAt := parseNullDateTimeLocal(r.PostFormValue("ends_at"))
	if endsAt.Valid && endsAt.Time.Before(startsAt) {
		flashError(h.renderer, w, r, redirectAdminEvents, "End date must be after the start date.")
		return
	}

	slug, err := uniqueSlug(r.Context(), title, r.PostFormValue("slug"), event.ID, h.queries.CountEventsBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving event slug", err)
		return
	}

	_, err = h.queries.UpdateEvent(r.Context(), store.UpdateEventParams{
		ID:          event.ID,
		Title:       title,
		Slug:        slug,
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Venue:       strings.TrimSpace(r.PostFormValue("venue")),
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		IsFeatured:  parseCheckbox(r, "is_featured"),
		IsActive:    parseCheckbox(r, "is_active"),
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		logAndInternalError(w, r, "updating event", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminEvents, "Event updated.")
}

// ToggleFeatured flips the home-page featured flag.
func (h *EventHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	if err := h.queries.SetEventFeatured(r.Context(), event.ID, !event.IsFeatured, time.Now()); err != nil {
		logAndInternalError(w, r, "toggling featured", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminEvents, "Event updated.")
}

// Toggle flips the active flag.
func (h *EventHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	if err := h.queries.SetEventActive(r.Context(), event.ID, !event.IsActive, time.Now()); err != nil {
		logAndInternalError(w, r, "toggling event", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminEvents, "Event updated.")
}

// Delete removes an event.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteEvent(r.Context(), event.ID); err != nil {
		logAndInternalError(w, r, "deleting event", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminEvents, "Event deleted.")
}

func (h *EventHandler) loadEvent(w http.ResponseWriter, r *http.Request) (store.Event, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminEvents, "Invalid event.")
		return store.Event{}, false
	}

	event, err := h.queries.GetEventByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(h.renderer, w, r, redirectAdminEvents, "Event not found.")
			return store.Event{}, false
		}
		logAndInternalError(w, r, "loading event", err)
		return store.Event{}, false
	}
	return event, true
}

func (h *EventHandler) renderForm(w http.ResponseWriter, r *http.Request, event store.Event, editing bool) {
	title := "New Event"
	if editing {
		title = "Edit Event"
	}

	err := h.renderer.Render(w, r, "admin/event_form", render.TemplateData{
		Title:    title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Event   store.Event
			Editing bool
		}{event, editing},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Events", URL: redirectAdminEvents},
			{Label: title, URL: ""},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering event form", err)
	}
}
