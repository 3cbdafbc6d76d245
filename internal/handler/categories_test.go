package handler

import (
	"context"
	"database/sql"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitstable-shop/site/internal/cache"
	"github.com/whitstable-shop/site/internal/render"
	"github.com/whitstable-shop/site/internal/session"
	"github.com/whitstable-shop/site/internal/store"
	"github.com/whitstable-shop/site/web"
)

// newCategoryTestServer wires a CategoryHandler against a temporary
// database and the real templates, mounted on the same routes main
// registers.
func newCategoryTestServer(t *testing.T) (*chi.Mux, *store.Queries, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "whitshop-handler-test-*.db")
	require.NoError(t, err)
	dbPath := f.Name()
	f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	sm := session.New(db, true)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	require.NoError(t, err)
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sm,
		IsDev:          true,
	})
	require.NoError(t, err)

	queries := store.New(db)
	cm := cache.NewManager(cache.NewSimpleMemoryCache(time.Minute), queries, time.Minute)
	h := NewCategoryHandler(db, renderer, sm, cm)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Route("/admin/categories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.EditForm)
		r.Post("/{id}", h.Update)
		r.Post("/{id}/reorder", h.Reorder)
		r.Post("/{id}/delete", h.Delete)
	})

	return r, queries, cleanup
}

func mustCreateCategory(t *testing.T, q *store.Queries, name, slug string, sortOrder int64) store.Category {
	t.Helper()
	now := time.Now()
	category, err := q.CreateCategory(context.Background(), store.CreateCategoryParams{
		Name:      name,
		Slug:      slug,
		SortOrder: sortOrder,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return category
}

func postForm(t *testing.T, router http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func categorySlugs(t *testing.T, q *store.Queries) []string {
	t.Helper()
	categories, err := q.ListCategories(context.Background())
	require.NoError(t, err)
	slugs := make([]string, 0, len(categories))
	for _, c := range categories {
		slugs = append(slugs, c.Slug)
	}
	return slugs
}

func TestCategoryReorderSwapsNeighbours(t *testing.T) {
	router, queries, cleanup := newCategoryTestServer(t)
	defer cleanup()

	mustCreateCategory(t, queries, "Arts", "arts", 1)
	books := mustCreateCategory(t, queries, "Books", "books", 2)
	mustCreateCategory(t, queries, "Cafes", "cafes", 3)

	rec := postForm(t, router, "/admin/categories/"+strconv.FormatInt(books.ID, 10)+"/reorder",
		url.Values{"direction": {"up"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, redirectAdminCategories, rec.Header().Get("Location"))
	assert.Equal(t, []string{"books", "arts", "cafes"}, categorySlugs(t, queries))

	// Moving the same row back down restores the original order.
	rec = postForm(t, router, "/admin/categories/"+strconv.FormatInt(books.ID, 10)+"/reorder",
		url.Values{"direction": {"down"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []string{"arts", "books", "cafes"}, categorySlugs(t, queries))
}

func TestCategoryReorderAtEdgeLeavesOrderUnchanged(t *testing.T) {
	router, queries, cleanup := newCategoryTestServer(t)
	defer cleanup()

	first := mustCreateCategory(t, queries, "Arts", "arts", 1)
	mustCreateCategory(t, queries, "Books", "books", 2)
	last := mustCreateCategory(t, queries, "Cafes", "cafes", 3)

	rec := postForm(t, router, "/admin/categories/"+strconv.FormatInt(first.ID, 10)+"/reorder",
		url.Values{"direction": {"up"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []string{"arts", "books", "cafes"}, categorySlugs(t, queries))

	rec = postForm(t, router, "/admin/categories/"+strconv.FormatInt(last.ID, 10)+"/reorder",
		url.Values{"direction": {"down"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []string{"arts", "books", "cafes"}, categorySlugs(t, queries))
}

func TestCategoryUpdateWithoutChangesKeepsFields(t *testing.T) {
	router, queries, cleanup := newCategoryTestServer(t)
	defer cleanup()

	now := time.Now()
	category, err := queries.CreateCategory(context.Background(), store.CreateCategoryParams{
		Name:        "Seafood",
		Slug:        "seafood",
		Description: "Oysters and more",
		Icon:        "fish",
		SortOrder:   1,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	require.NoError(t, err)

	rec := postForm(t, router, "/admin/categories/"+strconv.FormatInt(category.ID, 10), url.Values{
		"name":        {category.Name},
		"slug":        {category.Slug},
		"description": {category.Description},
		"icon":        {category.Icon},
		"is_active":   {"on"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	got, err := queries.GetCategoryByID(context.Background(), category.ID)
	require.NoError(t, err)
	assert.Equal(t, category.Name, got.Name)
	assert.Equal(t, category.Slug, got.Slug)
	assert.Equal(t, category.Description, got.Description)
	assert.Equal(t, category.Icon, got.Icon)
	assert.Equal(t, category.SortOrder, got.SortOrder)
	assert.True(t, got.IsActive)
}

func TestCategoryDeleteConfirmThenCancel(t *testing.T) {
	router, queries, cleanup := newCategoryTestServer(t)
	defer cleanup()

	category := mustCreateCategory(t, queries, "Gifts", "gifts", 1)

	// Asking for confirmation shows the delete form and a cancel link
	// but does not touch the row.
	req := httptest.NewRequest(http.MethodGet, "/admin/categories?confirm_delete="+strconv.FormatInt(category.ID, 10), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Really delete?")
	assert.Contains(t, body, `href="/admin/categories">Cancel</a>`)

	// Following the cancel link renders the plain list with the row intact.
	req = httptest.NewRequest(http.MethodGet, "/admin/categories", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.NotContains(t, body, "Really delete?")
	assert.Contains(t, body, "Gifts")

	_, err := queries.GetCategoryByID(context.Background(), category.ID)
	require.NoError(t, err)
}

func TestCategoryDeleteConfirmed(t *testing.T) {
	router, queries, cleanup := newCategoryTestServer(t)
	defer cleanup()

	category := mustCreateCategory(t, queries, "Gifts", "gifts", 1)

	rec := postForm(t, router, "/admin/categories/"+strconv.FormatInt(category.ID, 10)+"/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	_, err := queries.GetCategoryByID(context.Background(), category.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
