// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler contains the HTTP handlers for the admin back office,
// the public site, and the JSON API.
package handler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/whitstable-shop/site/internal/render"
	"github.com/whitstable-shop/site/internal/util"
)

// DefaultPageSize is the number of rows per admin list page.
const DefaultPageSize = 20

// Pagination carries the page window for admin list templates.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

// ParsePageParam returns the 1-based page number from the query string.
func ParsePageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Paginate slices items down to the requested page window and returns
// the matching Pagination. An out-of-range page clamps to the last one.
func Paginate[T any](items []T, page, perPage int) ([]T, Pagination) {
	if perPage < 1 {
		perPage = DefaultPageSize
	}

	total := len(items)
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return items[start:end], Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PrevPage:   page - 1,
		NextPage:   page + 1,
	}
}

// parseIDParam extracts the {id} chi URL parameter.
func parseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id parameter")
	}
	return id, nil
}

// parseFormInt64 extracts a positive integer form field.
func parseFormInt64(r *http.Request, field string) (int64, error) {
	id, err := strconv.ParseInt(r.PostFormValue(field), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s field", field)
	}
	return id, nil
}

// confirmDeleteID returns the id awaiting delete confirmation, if any.
// Admin list pages link to themselves with ?confirm_delete=<id> so the
// destructive action always takes two clicks.
func confirmDeleteID(r *http.Request) int64 {
	id, err := strconv.ParseInt(r.URL.Query().Get("confirm_delete"), 10, 64)
	if err != nil || id < 1 {
		return 0
	}
	return id
}

// parseCheckbox reports whether a form checkbox was ticked.
func parseCheckbox(r *http.Request, name string) bool {
	v := r.PostFormValue(name)
	return v == "on" || v == "true" || v == "1"
}

// parseDateTimeLocal parses the value of an <input type="datetime-local">.
func parseDateTimeLocal(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02T15:04", strings.TrimSpace(s), time.Local)
}

// parseNullDateTimeLocal is parseDateTimeLocal for optional inputs.
func parseNullDateTimeLocal(s string) sql.NullTime {
	if strings.TrimSpace(s) == "" {
		return sql.NullTime{}
	}
	t, err := parseDateTimeLocal(s)
	if err != nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// parseDateLocal parses the value of an <input type="date">.
func parseDateLocal(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local)
}

// uniqueSlug derives a slug from the provided value (or the name when
// empty) and de-duplicates it with a numeric suffix. countFn reports
// how many other rows already hold the candidate slug.
func uniqueSlug(ctx context.Context, name, provided string, excludeID int64,
	countFn func(ctx context.Context, slug string, excludeID int64) (int64, error)) (string, error) {

	base := util.Slugify(provided)
	if base == "" {
		base = util.Slugify(name)
	}
	if base == "" {
		return "", fmt.Errorf("cannot derive slug from empty name")
	}

	candidate := base
	for i := 2; ; i++ {
		count, err := countFn(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// clientIP returns the requester's IP, honouring chi's RealIP middleware
// which rewrites RemoteAddr from X-Forwarded-For.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// logAndInternalError logs the error and sends a plain 500.
func logAndInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "error", err, "path", r.URL.Path)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// flashAndRedirect sets a success flash and redirects with 303.
func flashAndRedirect(renderer *render.Renderer, w http.ResponseWriter, r *http.Request, url, message string) {
	renderer.SetFlash(r, message, "success")
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError sets an error flash and redirects with 303.
func flashError(renderer *render.Renderer, w http.ResponseWriter, r *http.Request, url, message string) {
	renderer.SetFlash(r, message, "error")
	http.Redirect(w, r, url, http.StatusSeeOther)
}
