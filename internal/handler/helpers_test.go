package handler

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"page=0", 1},
		{"page=-3", 1},
		{"page=abc", 1},
		{"page=7", 7},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/admin/shops?"+tt.query, nil)
		assert.Equal(t, tt.want, ParsePageParam(r), "query %q", tt.query)
	}
}

func TestPaginate(t *testing.T) {
	items := make([]int, 45)
	for i := range items {
		items[i] = i
	}

	page, p := Paginate(items, 2, 20)
	require.Len(t, page, 20)
	assert.Equal(t, 20, page[0])
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 45, p.Total)
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)
	assert.Equal(t, 1, p.PrevPage)
	assert.Equal(t, 3, p.NextPage)
}

func TestPaginateClampsOutOfRange(t *testing.T) {
	items := []string{"a", "b", "c"}

	page, p := Paginate(items, 99, 2)
	assert.Equal(t, []string{"c"}, page, "over-range page clamps to the last one")
	assert.Equal(t, 2, p.Page)
	assert.False(t, p.HasNext)

	page, p = Paginate(items, -1, 2)
	assert.Equal(t, []string{"a", "b"}, page)
	assert.Equal(t, 1, p.Page)
}

func TestPaginateEmpty(t *testing.T) {
	page, p := Paginate([]int(nil), 1, 20)
	assert.Empty(t, page)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 1, p.TotalPages)
	assert.False(t, p.HasPrev)
	assert.False(t, p.HasNext)
}

func TestConfirmDeleteID(t *testing.T) {
	r := httptest.NewRequest("GET", "/admin/shops?confirm_delete=12", nil)
	assert.Equal(t, int64(12), confirmDeleteID(r))

	r = httptest.NewRequest("GET", "/admin/shops", nil)
	assert.Zero(t, confirmDeleteID(r))

	r = httptest.NewRequest("GET", "/admin/shops?confirm_delete=oops", nil)
	assert.Zero(t, confirmDeleteID(r))
}

func TestParseCheckbox(t *testing.T) {
	for _, v := range []string{"on", "true", "1"} {
		form := url.Values{"is_active": {v}}
		r := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		assert.True(t, parseCheckbox(r, "is_active"), "value %q", v)
	}

	r := httptest.NewRequest("POST", "/", strings.NewReader(""))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.False(t, parseCheckbox(r, "is_active"))
}

func TestParseDateTimeLocal(t *testing.T) {
	got, err := parseDateTimeLocal(" 2026-03-14T18:30 ")
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, 18, got.Hour())
	assert.Equal(t, 30, got.Minute())

	_, err = parseDateTimeLocal("not-a-date")
	assert.Error(t, err)
}

func TestParseNullDateTimeLocal(t *testing.T) {
	assert.False(t, parseNullDateTimeLocal("").Valid)
	assert.False(t, parseNullDateTimeLocal("   ").Valid)
	assert.False(t, parseNullDateTimeLocal("garbage").Valid)

	got := parseNullDateTimeLocal("2026-03-14T18:30")
	require.True(t, got.Valid)
	assert.Equal(t, 14, got.Time.Day())
}

func TestUniqueSlug(t *testing.T) {
	ctx := context.Background()
	taken := map[string]bool{"harbour-books": true, "harbour-books-2": true}
	countFn := func(_ context.Context, slug string, _ int64) (int64, error) {
		if taken[slug] {
			return 1, nil
		}
		return 0, nil
	}

	slug, err := uniqueSlug(ctx, "Harbour Books", "", 0, countFn)
	require.NoError(t, err)
	assert.Equal(t, "harbour-books-3", slug)

	slug, err = uniqueSlug(ctx, "Harbour Books", "custom-slug", 0, countFn)
	require.NoError(t, err)
	assert.Equal(t, "custom-slug", slug, "provided slug wins over the name")

	_, err = uniqueSlug(ctx, "", "", 0, countFn)
	assert.Error(t, err, "empty name cannot produce a slug")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.9:54321"
	assert.Equal(t, "203.0.113.9", clientIP(r))

	r.RemoteAddr = "203.0.113.9"
	assert.Equal(t, "203.0.113.9", clientIP(r))
}

func TestSanitizeNext(t *testing.T) {
	assert.Equal(t, "/admin/shops", sanitizeNext("/admin/shops"))
	assert.Empty(t, sanitizeNext(""))
	assert.Empty(t, sanitizeNext("https://evil.example"))
	assert.Empty(t, sanitizeNext("//evil.example"))
}

func TestParseModerationRefs(t *testing.T) {
	refs, err := parseModerationRefs([]string{"shop:4", "review:17"})
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "shop", refs[0].Type)
	assert.Equal(t, int64(4), refs[0].ID)
	assert.Equal(t, "review", refs[1].Type)
	assert.Equal(t, int64(17), refs[1].ID)

	for _, bad := range []string{"shop", "gadget:4", "shop:zero", "shop:0"} {
		_, err := parseModerationRefs([]string{bad})
		assert.Error(t, err, "value %q", bad)
	}
}

func TestFormatMetadata(t *testing.T) {
	assert.Empty(t, formatMetadata(""))
	assert.Empty(t, formatMetadata("{}"))
	assert.Equal(t, "not json", formatMetadata("not json"), "unparseable metadata shows raw")

	got := formatMetadata(`{"shop":"Harbour Books","count":2}`)
	assert.Equal(t, "count: 2, shop: Harbour Books", got, "keys sort alphabetically")
}

func TestParseGoalPence(t *testing.T) {
	got, ok := parseGoalPence("")
	assert.True(t, ok)
	assert.False(t, got.Valid, "empty goal is allowed and stores null")

	got, ok = parseGoalPence("1500")
	require.True(t, ok)
	assert.Equal(t, int64(150000), got.Int64)

	got, ok = parseGoalPence("12.99")
	require.True(t, ok)
	assert.Equal(t, int64(1299), got.Int64)

	for _, bad := range []string{"0", "-5", "abc"} {
		_, ok := parseGoalPence(bad)
		assert.False(t, ok, "value %q", bad)
	}
}
