// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
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

// AuthHandler handles login and logout.
type AuthHandler struct {
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
	audit           *service.AuditService
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection, audit *service.AuditService) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
		audit:           audit,
	}
}

type loginFormData struct {
	Email string
	Next  string
}

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUserID(r) != 0 {
		http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
		return
	}

	err := h.renderer.Render(w, r, "auth/login", render.TemplateData{
		Title:    "Sign In",
		SiteName: middleware.GetSiteName(r),
		Data:     loginFormData{Next: sanitizeNext(r.URL.Query().Get("next"))},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering login page", err)
	}
}

// Login processes the login form.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.loginFailed(w, r, "", "", "Invalid form submission.")
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.PostFormValue("email")))
	password := r.PostFormValue("password")
	next := sanitizeNext(r.PostFormValue("next"))
	ip := clientIP(r)

	if email == "" || password == "" {
		h.loginFailed(w, r, email, next, "Email and password are required.")
		return
	}

	if !h.loginProtection.CheckIPRateLimit(ip) {
		h.loginFailed(w, r, email, next, "Too many login attempts. Please try again later.")
		return
	}

	if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
		h.loginFailed(w, r, email, next,
			fmt.Sprintf("Account temporarily locked. Try again in %s.", formatDuration(remaining)))
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logAndInternalError(w, r, "looking up user", err)
			return
		}
		// Record the failure even for unknown accounts so the response
		// does not reveal which emails exist.
		h.recordFailure(w, r, email, next, ip)
		return
	}

	if !user.IsActive {
		h.recordFailure(w, r, email, next, ip)
		return
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		logAndInternalError(w, r, "verifying password", err)
		return
	}
	if !ok {
		h.recordFailure(w, r, email, next, ip)
		return
	}

	h.loginProtection.RecordSuccessfulLogin(email)

	// Rotate the session token on privilege change to prevent fixation.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, r, "renewing session token", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	now := time.Now()
	if err := h.queries.TouchUserLastLogin(r.Context(), user.ID, now); err != nil {
		slog.Warn("updating last login", "user_id", user.ID, "error", err)
	}

	_ = h.audit.LogAuth(r.Context(), model.EventLevelInfo, "User logged in: "+user.Email,
		sql.NullInt64{Int64: user.ID, Valid: true}, ip, map[string]any{"role": user.Role})

	if next != "" {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	switch user.Role {
	case model.RoleAdmin, model.RoleModerator:
		http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
	default:
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
	}
}

// Logout destroys the session and returns to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDNull(r)

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		logAndInternalError(w, r, "destroying session", err)
		return
	}

	_ = h.audit.LogAuth(r.Context(), model.EventLevelInfo, "User logged out", userID, clientIP(r), nil)

	flashAndRedirect(h.renderer, w, r, redirectLogin, "You have been signed out.")
}

// recordFailure records a failed attempt and re-renders the form with a
// generic message. Lockouts surface once the threshold is crossed.
func (h *AuthHandler) recordFailure(w http.ResponseWriter, r *http.Request, email, next, ip string) {
	locked, lockDuration := h.loginProtection.RecordFailedAttempt(email)

	_ = h.audit.LogAuth(r.Context(), model.EventLevelWarning, "Failed login attempt for "+email,
		sql.NullInt64{}, ip, map[string]any{"locked": locked})

	if locked {
		h.loginFailed(w, r, email, next,
			fmt.Sprintf("Account locked due to failed attempts. Try again in %s.", formatDuration(lockDuration)))
		return
	}
	h.loginFailed(w, r, email, next, "Invalid email or password.")
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, email, next, message string) {
	h.renderer.SetFlash(r, message, "error")
	err := h.renderer.RenderStatus(w, r, "auth/login", http.StatusUnprocessableEntity, render.TemplateData{
		Title:    "Sign In",
		SiteName: middleware.GetSiteName(r),
		Data:     loginFormData{Email: email, Next: next},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering login page", err)
	}
}

// sanitizeNext only allows same-site absolute paths as post-login
// redirect targets, never protocol-relative or external URLs.
func sanitizeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	return fmt.Sprintf("%d minutes", int(d.Round(time.Minute).Minutes()))
}
