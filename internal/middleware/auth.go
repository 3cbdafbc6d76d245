// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/alexedwards/scs/v2"

	"github.com/whitstable-shop/site/internal/cache"
	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/render"
	"github.com/whitstable-shop/site/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for user data.
const (
	ContextKeyUser        ContextKey = "user"
	ContextKeySiteName    ContextKey = "site_name"
	ContextKeyRequestPath ContextKey = "request_path"
)

// SessionKeyUserID is the session key holding the signed-in user's id.
const SessionKeyUserID = "user_id"

// Auth creates middleware that requires authentication. Anonymous
// requests are redirected to login with the original path preserved in
// the next parameter so the login handler can return the user there.
func Auth(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), SessionKeyUserID)
			if userID == 0 {
				returnTo := r.URL.Path
				if r.URL.RawQuery != "" {
					returnTo += "?" + r.URL.RawQuery
				}
				http.Redirect(w, r, "/login?next="+url.QueryEscape(returnTo), http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoadUser creates middleware that loads the current user into the request
// context. This should be used after Auth middleware.
func LoadUser(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), SessionKeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			if err != nil || !user.IsActive {
				// Stale or deactivated account: clear the session
				_ = sm.Destroy(r.Context())
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalLoadUser creates middleware that optionally loads the current
// user into context. Unlike LoadUser, this does NOT redirect to login if
// the user is not found. Use this for public routes where authentication
// is optional but user context is useful.
func OptionalLoadUser(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), SessionKeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *store.User {
	user, ok := r.Context().Value(ContextKeyUser).(store.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID from context, or 0 if not found.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// GetUserIDNull returns the current user's id as a sql.NullInt64, for
// audit rows where anonymous actions are valid.
func GetUserIDNull(r *http.Request) sql.NullInt64 {
	if user := GetUser(r); user != nil {
		return sql.NullInt64{Int64: user.ID, Valid: true}
	}
	return sql.NullInt64{}
}

// LoadSiteConfig creates middleware that loads the site name into context.
// The cache manager serves lookups so public pages don't hit the database.
func LoadSiteConfig(cacheManager *cache.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			siteName := "whitstable.shop" // default fallback

			if cacheManager != nil {
				if settings, err := cacheManager.SiteConfig(r.Context()); err == nil {
					if name := settings["site_name"]; name != "" {
						siteName = name
					}
				}
			}

			ctx := context.WithValue(r.Context(), ContextKeySiteName, siteName)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSiteName retrieves the site name from the request context.
func GetSiteName(r *http.Request) string {
	siteName, ok := r.Context().Value(ContextKeySiteName).(string)
	if !ok || siteName == "" {
		return "whitstable.shop"
	}
	return siteName
}

// RequestPath creates middleware that stores the request path in the
// context. The logging handler includes it in error logs.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}

// RequireRole creates middleware that requires a minimum user role.
// Roles are hierarchical: admin > moderator > user. On insufficient role
// the access-denied page is rendered in place with a 403 status; no
// redirect happens and no page data is fetched.
func RequireRole(minRole string, renderer *render.Renderer) func(http.Handler) http.Handler {
	minLevel := model.RoleLevel(minRole)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
				return
			}

			if model.RoleLevel(user.Role) < minLevel {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"user_role", user.Role,
					"required_role", minRole,
					"remote_addr", r.RemoteAddr,
				)

				if renderer != nil {
					err := renderer.RenderStatus(w, r, "admin/forbidden", http.StatusForbidden, render.TemplateData{
						Title:    "Access Denied",
						SiteName: GetSiteName(r),
						User:     user,
					})
					if err == nil {
						return
					}
					slog.Error("rendering forbidden page", "error", err)
				}
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin creates middleware that requires admin role.
func RequireAdmin(renderer *render.Renderer) func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin, renderer)
}

// RequireModerator creates middleware that requires at least moderator
// role. Allows both admin and moderator users.
func RequireModerator(renderer *render.Renderer) func(http.Handler) http.Handler {
	return RequireRole(model.RoleModerator, renderer)
}
