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

	"github.com/whitstable-shop/site/internal/auth"
	"github.com/whitstable-shop/site/internal/middleware"
	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/render"
	"github.com/whitstable-shop/site/internal/service"
	"github.com/whitstable-shop/site/internal/store"
)

// UserHandler manages accounts in the back office. Admin only.
type UserHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	audit          *service.AuditService
}

// NewUserHandler creates a user handler.
func NewUserHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, audit *service.AuditService) *UserHandler {
	return &UserHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		audit:          audit,
	}
}

// List shows all accounts.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.queries.ListUsers(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing users", err)
		return
	}

	err = h.renderer.Render(w, r, "admin/users", render.TemplateData{
		Title:    "Users",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Users         []store.User
			ConfirmDelete int64
		}{users, confirmDeleteID(r)},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Users", URL: redirectAdminUsers},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering users", err)
	}
}

// NewForm renders the account create form.
func (h *UserHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, store.User{Role: model.RoleUser, IsActive: true}, false)
}

// Create inserts an account with an argon2id password hash.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminUsers+RouteSuffixNew, "Invalid form submission.")
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.PostFormValue("email")))
	name := strings.TrimSpace(r.PostFormValue("name"))
	password := r.PostFormValue("password")
	role := r.PostFormValue("role")

	if email == "" || name == "" {
		flashError(h.renderer, w, r, redirectAdminUsers+RouteSuffixNew, "Email and name are required.")
		return
	}
	if len(password) < 8 {
		flashError(h.renderer, w, r, redirectAdminUsers+RouteSuffixNew, "Password must be at least 8 characters.")
		return
	}
	if !model.ValidRole(role) {
		flashError(h.renderer, w, r, redirectAdminUsers+RouteSuffixNew, "Invalid role.")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logAndInternalError(w, r, "hashing password", err)
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         name,
		IsActive:     parseCheckbox(r, "is_active"),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// The unique index on email is the usual cause here
		flashError(h.renderer, w, r, redirectAdminUsers+RouteSuffixNew, "Could not create the account. Is the email already in use?")
		return
	}

	_ = h.audit.LogInfo(r.Context(), model.EventCategoryUser, "User created: "+user.Email,
		middleware.GetUserIDNull(r), clientIP(r), map[string]any{"new_user_id": user.ID, "role": user.Role})

	flashAndRedirect(h.renderer, w, r, redirectAdminUsers, "User created.")
}

// EditForm renders the account edit form.
func (h *UserHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, user, true)
}

// Update saves profile fields and, when supplied, a new password.
// Role and active changes on your own account are blocked so an admin
// cannot lock themselves out.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, redirectAdminUsers, "Invalid form submission.")
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.PostFormValue("email")))
	name := strings.TrimSpace(r.PostFormValue("name"))
	role := r.PostFormValue("role")
	isActive := parseCheckbox(r, "is_active")

	if email == "" || name == "" {
		flashError(h.renderer, w, r, redirectAdminUsers, "Email and name are required.")
		return
	}
	if !model.ValidRole(role) {
		flashError(h.renderer, w, r, redirectAdminUsers, "Invalid role.")
		return
	}

	if user.ID == middleware.GetUserID(r) && (role != user.Role || !isActive) {
		flashError(h.renderer, w, r, redirectAdminUsers, "You cannot demote or deactivate your own account.")
		return
	}

	now := time.Now()
	_, err := h.queries.UpdateUser(r.Context(), store.UpdateUserParams{
		ID:        user.ID,
		Email:     email,
		Role:      role,
		Name:      name,
		IsActive:  isActive,
		UpdatedAt: now,
	})
	if err != nil {
		logAndInternalError(w, r, "updating user", err)
		return
	}

	if password := r.PostFormValue("password"); password != "" {
		if len(password) < 8 {
			flashError(h.renderer, w, r, redirectAdminUsers, "Password must be at least 8 characters.")
			return
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			logAndInternalError(w, r, "hashing password", err)
			return
		}
		if err := h.queries.UpdateUserPassword(r.Context(), user.ID, hash, now); err != nil {
			logAndInternalError(w, r, "updating password", err)
			return
		}
	}

	if role != user.Role {
		_ = h.audit.LogWarning(r.Context(), model.EventCategoryUser,
			"User role changed: "+user.Email+" to "+role,
			middleware.GetUserIDNull(r), clientIP(r), map[string]any{"target_user_id": user.ID, "old_role": user.Role, "new_role": role})
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminUsers, "User updated.")
}

// Toggle flips the active flag. Your own account stays untouched.
func (h *UserHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	if user.ID == middleware.GetUserID(r) {
		flashError(h.renderer, w, r, redirectAdminUsers, "You cannot deactivate your own account.")
		return
	}

	if err := h.queries.SetUserActive(r.Context(), user.ID, !user.IsActive, time.Now()); err != nil {
		logAndInternalError(w, r, "toggling user", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, redirectAdminUsers, "User updated.")
}

// Delete removes an account. Self-deletion is blocked.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	if user.ID == middleware.GetUserID(r) {
		flashError(h.renderer, w, r, redirectAdminUsers, "You cannot delete your own account.")
		return
	}

	if err := h.queries.DeleteUser(r.Context(), user.ID); err != nil {
		logAndInternalError(w, r, "deleting user", err)
		return
	}

	_ = h.audit.LogWarning(r.Context(), model.EventCategoryUser, "User deleted: "+user.Email,
		middleware.GetUserIDNull(r), clientIP(r), map[string]any{"target_user_id": user.ID})

	flashAndRedirect(h.renderer, w, r, redirectAdminUsers, "User deleted.")
}

func (h *UserHandler) loadUser(w http.ResponseWriter, r *http.Request) (store.User, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(h.renderer, w, r, redirectAdminUsers, "Invalid user.")
		return store.User{}, false
	}

	user, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(h.renderer, w, r, redirectAdminUsers, "User not found.")
			return store.User{}, false
		}
		logAndInternalError(w, r, "loading user", err)
		return store.User{}, false
	}
	return user, true
}

func (h *UserHandler) renderForm(w http.ResponseWriter, r *http.Request, user store.User, editing bool) {
	title := "New User"
	if editing {
		title = "Edit User"
	}

	err := h.renderer.Render(w, r, "admin/user_form", render.TemplateData{
		Title:    title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Account store.User
			Roles   []string
			Editing bool
		}{user, []string{model.RoleUser, model.RoleModerator, model.RoleAdmin}, editing},
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", URL: redirectAdmin},
			{Label: "Users", URL: redirectAdminUsers},
			{Label: title, URL: ""},
		},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering user form", err)
	}
}
