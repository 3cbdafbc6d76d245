// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"

	"github.com/whitstable-shop/site/internal/store"
)

func TestGetUser(t *testing.T) {
	t.Run("no user in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		user := GetUser(req)
		if user != nil {
			t.Errorf("GetUser() = %v, want nil", user)
		}
	})

	t.Run("user in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		testUser := store.User{
			ID:    123,
			Email: "test@example.com",
			Role:  "admin",
			Name:  "Test User",
		}
		ctx := context.WithValue(req.Context(), ContextKeyUser, testUser)
		req = req.WithContext(ctx)

		user := GetUser(req)
		if user == nil {
			t.Fatal("GetUser() = nil, want user")
		}
		if user.ID != 123 {
			t.Errorf("GetUser().ID = %d, want 123", user.ID)
		}
	})
}

func TestGetUserIDNull(t *testing.T) {
	t.Run("no user in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		id := GetUserIDNull(req)
		if id.Valid {
			t.Errorf("GetUserIDNull() = %v, want invalid", id)
		}
	})

	t.Run("user in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := context.WithValue(req.Context(), ContextKeyUser, store.User{ID: 789})
		req = req.WithContext(ctx)

		id := GetUserIDNull(req)
		if !id.Valid || id.Int64 != 789 {
			t.Errorf("GetUserIDNull() = %v, want valid 789", id)
		}
	})
}

func TestAuthRedirectsWithNext(t *testing.T) {
	sm := scs.New()

	handler := sm.LoadAndSave(Auth(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached for anonymous request")
	})))

	req := httptest.NewRequest(http.MethodGet, "/admin/shops?page=2", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/login?next=") {
		t.Errorf("Location = %q, want /login?next=...", loc)
	}
	if !strings.Contains(loc, "%2Fadmin%2Fshops") {
		t.Errorf("Location = %q, should carry the original path", loc)
	}
}

func TestRequireRoleInsufficient(t *testing.T) {
	handler := RequireRole("admin", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached with insufficient role")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	ctx := context.WithValue(req.Context(), ContextKeyUser, store.User{ID: 1, Role: "moderator"})
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	// Denial is rendered in place, not redirected
	if loc := rec.Header().Get("Location"); loc != "" {
		t.Errorf("Location = %q, want no redirect", loc)
	}
}

func TestRequireRoleHierarchy(t *testing.T) {
	tests := []struct {
		userRole string
		minRole  string
		allowed  bool
	}{
		{"admin", "admin", true},
		{"admin", "moderator", true},
		{"moderator", "moderator", true},
		{"moderator", "admin", false},
		{"user", "moderator", false},
		{"user", "admin", false},
	}

	for _, tt := range tests {
		t.Run(tt.userRole+"_needs_"+tt.minRole, func(t *testing.T) {
			reached := false
			handler := RequireRole(tt.minRole, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			ctx := context.WithValue(req.Context(), ContextKeyUser, store.User{ID: 1, Role: tt.userRole})
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if reached != tt.allowed {
				t.Errorf("reached = %v, want %v", reached, tt.allowed)
			}
		})
	}
}

func TestRequireRoleAnonymous(t *testing.T) {
	handler := RequireRole("moderator", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached anonymously")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/moderation", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want redirect to login", rec.Code)
	}
}

func TestGetSiteName(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if name := GetSiteName(req); name != "whitstable.shop" {
		t.Errorf("GetSiteName() = %q, want default", name)
	}

	ctx := context.WithValue(req.Context(), ContextKeySiteName, "Custom Name")
	req = req.WithContext(ctx)
	if name := GetSiteName(req); name != "Custom Name" {
		t.Errorf("GetSiteName() = %q, want Custom Name", name)
	}
}

func TestRequestPath(t *testing.T) {
	var got string
	handler := RequestPath(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestPath(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/shops/oyster-stores", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "/shops/oyster-stores" {
		t.Errorf("path = %q, want /shops/oyster-stores", got)
	}
}
