package render

import (
	"io/fs"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitstable-shop/site/web"
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()

	templatesFS, err := fs.Sub(web.Templates, "templates")
	require.NoError(t, err)

	r, err := New(Config{TemplatesFS: templatesFS})
	require.NoError(t, err)
	return r
}

func TestParsesAllTemplates(t *testing.T) {
	r := testRenderer(t)

	expected := []string{
		"auth/login",
		"admin/dashboard",
		"admin/forbidden",
		"admin/categories", "admin/category_form",
		"admin/shops", "admin/shop_form",
		"admin/events", "admin/event_form",
		"admin/offers", "admin/offer_form",
		"admin/charities", "admin/charity_form",
		"admin/campaigns", "admin/campaign_form",
		"admin/quicklinks", "admin/quicklink_form",
		"admin/infopages", "admin/infopage_form",
		"admin/competitions", "admin/competition_form", "admin/competition_entries",
		"admin/walks", "admin/walk_form", "admin/walk_attendance",
		"admin/users", "admin/user_form",
		"admin/moderation",
		"admin/audit",
		"site/home",
		"site/directory",
		"site/shop",
		"site/suggest_shop",
		"site/events",
		"site/offers",
		"site/charities",
		"site/info_page",
		"site/competitions",
		"site/gallery",
		"site/walks",
	}
	for _, name := range expected {
		assert.Contains(t, r.templates, name)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := testRenderer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	err := r.Render(rec, req, "admin/nope", TemplateData{})
	assert.Error(t, err)
}

func TestRenderForbiddenPage(t *testing.T) {
	r := testRenderer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin/users", nil)
	err := r.RenderStatus(rec, req, "admin/forbidden", 403, TemplateData{
		Title:    "Forbidden",
		SiteName: "whitstable.shop",
	})
	require.NoError(t, err)
	assert.Equal(t, 403, rec.Code)
	assert.Contains(t, rec.Body.String(), "whitstable.shop")
}

func TestRenderLoginPage(t *testing.T) {
	r := testRenderer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/login", nil)
	err := r.Render(rec, req, "auth/login", TemplateData{
		Title:    "Sign In",
		SiteName: "whitstable.shop",
		Data: struct {
			Email string
			Next  string
		}{Email: "staff@whitstable.shop", Next: "/admin"},
	})
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), "staff@whitstable.shop")
	assert.Contains(t, rec.Body.String(), `name="next"`)
}
