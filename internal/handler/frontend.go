// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"database/sql"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/whitstable-shop/site/internal/cache"
	"github.com/whitstable-shop/site/internal/middleware"
	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/render"
	"github.com/whitstable-shop/site/internal/service"
	"github.com/whitstable-shop/site/internal/store"
	"github.com/whitstable-shop/site/internal/util"
)

// homeFeaturedLimit caps the featured shops block on the home page.
const homeFeaturedLimit = 6

// homeEventsLimit caps the upcoming events block on the home page.
const homeEventsLimit = 3

var markdownSanitizer = bluemonday.UGCPolicy()

// FrontendHandler serves the public site.
type FrontendHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	cacheManager   *cache.Manager
	moderation     *service.ModerationService
	photos         *service.PhotoService
	markdown       goldmark.Markdown
	mapToken       string
}

// NewFrontendHandler creates the public site handler.
func NewFrontendHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, cm *cache.Manager, moderation *service.ModerationService, photos *service.PhotoService, mapToken string) *FrontendHandler {
	return &FrontendHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		cacheManager:   cm,
		moderation:     moderation,
		photos:         photos,
		markdown:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		mapToken:       mapToken,
	}
}

// Home renders the landing page: featured shops, quick links, and the
// next few events.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	featured, err := h.queries.ListFeaturedShops(r.Context(), homeFeaturedLimit)
	if err != nil {
		logAndInternalError(w, r, "listing featured shops", err)
		return
	}

	quickLinks, err := h.cacheManager.ActiveQuickLinks(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing quick links", err)
		return
	}

	events, err := h.queries.ListUpcomingEvents(r.Context(), time.Now(), homeEventsLimit)
	if err != nil {
		logAndInternalError(w, r, "listing events", err)
		return
	}

	err = h.renderer.Render(w, r, "site/home", render.TemplateData{
		Title:    "Home",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Featured   []store.Shop
			QuickLinks []store.QuickLink
			Events     []store.Event
		}{featured, quickLinks, events},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering home", err)
	}
}

// Directory renders the shop directory with category and search
// filters. Only approved, active shops appear.
func (h *FrontendHandler) Directory(w http.ResponseWriter, r *http.Request) {
	shops, err := h.queries.ListVisibleShops(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing shops", err)
		return
	}

	categories, err := h.cacheManager.ActiveCategories(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing categories", err)
		return
	}

	categorySlug := r.URL.Query().Get("category")
	var activeCategory *store.Category
	if categorySlug != "" {
		for i := range categories {
			if categories[i].Slug == categorySlug {
				activeCategory = &categories[i]
				break
			}
		}
		if activeCategory != nil {
			filtered := make([]store.Shop, 0, len(shops))
			for _, s := range shops {
				if s.CategoryID.Valid && s.CategoryID.Int64 == activeCategory.ID {
					filtered = append(filtered, s)
				}
			}
			shops = filtered
		}
	}

	search := strings.TrimSpace(r.URL.Query().Get("q"))
	if search != "" {
		filtered := make([]store.Shop, 0, len(shops))
		for _, s := range shops {
			if util.MatchesSearch(s.Name+" "+s.Description+" "+s.Address, search) {
				filtered = append(filtered, s)
			}
		}
		shops = filtered
	}

	page, pagination := Paginate(shops, ParsePageParam(r), DefaultPageSize)

	err = h.renderer.Render(w, r, "site/directory", render.TemplateData{
		Title:    "Directory",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Shops          []store.Shop
			Categories     []store.Category
			ActiveCategory *store.Category
			Search         string
			Pagination     Pagination
		}{page, categories, activeCategory, search, pagination},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering directory", err)
	}
}

// ShopDetail renders one shop with its approved reviews and the review
// form. Pending and rejected shops 404 here regardless of slug.
func (h *FrontendHandler) ShopDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	shop, err := h.queries.GetShopBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, r, "loading shop", err)
		return
	}
	if shop.Status != model.StatusApproved || !shop.IsActive {
		http.NotFound(w, r)
		return
	}

	reviews, err := h.queries.ListApprovedReviewsForShop(r.Context(), shop.ID)
	if err != nil {
		logAndInternalError(w, r, "listing reviews", err)
		return
	}

	var avgRating float64
	for _, review := range reviews {
		avgRating += float64(review.Rating)
	}
	if len(reviews) > 0 {
		avgRating /= float64(len(reviews))
	}

	var categoryName string
	if shop.CategoryID.Valid {
		if category, err := h.queries.GetCategoryByID(r.Context(), shop.CategoryID.Int64); err == nil {
			categoryName = category.Name
		}
	}

	err = h.renderer.Render(w, r, "site/shop", render.TemplateData{
		Title:    shop.Name,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Shop         store.Shop
			CategoryName string
			Reviews      []store.Review
			AvgRating    float64
			MapToken     string
		}{shop, categoryName, reviews, avgRating, h.mapToken},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering shop", err)
	}
}

// SubmitReview accepts a public review. It lands in the moderation
// queue as pending and never shows immediately.
func (h *FrontendHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	shopURL := "/shops/" + slug

	shop, err := h.queries.GetShopBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, r, "loading shop", err)
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, shopURL, "Invalid form submission.")
		return
	}

	rating, _ := parseFormInt64(r, "rating")
	_, err = h.moderation.SubmitReview(r.Context(), service.SubmitReviewParams{
		ShopID:     shop.ID,
		AuthorName: r.PostFormValue("author_name"),
		Rating:     rating,
		Body:       r.PostFormValue("body"),
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) || errors.Is(err, service.ErrNotFound) {
			flashError(h.renderer, w, r, shopURL, "Please fill in all review fields with a rating from 1 to 5.")
			return
		}
		logAndInternalError(w, r, "submitting review", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, shopURL, "Thanks! Your review will appear once approved.")
}

// SuggestShopForm renders the community shop submission form.
func (h *FrontendHandler) SuggestShopForm(w http.ResponseWriter, r *http.Request) {
	categories, err := h.cacheManager.ActiveCategories(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing categories", err)
		return
	}

	err = h.renderer.Render(w, r, "site/suggest_shop", render.TemplateData{
		Title:    "Suggest a Shop",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Categories []store.Category
		}{categories},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering suggestion form", err)
	}
}

// SuggestShop accepts a community shop submission. It starts pending
// and inactive until approved in the moderation queue.
func (h *FrontendHandler) SuggestShop(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, "/suggest", "Invalid form submission.")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		flashError(h.renderer, w, r, "/suggest", "The shop name is required.")
		return
	}

	slug, err := uniqueSlug(r.Context(), name, "", 0, h.queries.CountShopsBySlug)
	if err != nil {
		logAndInternalError(w, r, "deriving shop slug", err)
		return
	}

	now := time.Now()
	_, err = h.queries.CreateShop(r.Context(), store.CreateShopParams{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(r.PostFormValue("description")),
		CategoryID:  util.ParseNullInt64(r.PostFormValue("category_id")),
		Address:     strings.TrimSpace(r.PostFormValue("address")),
		Phone:       strings.TrimSpace(r.PostFormValue("phone")),
		Website:     strings.TrimSpace(r.PostFormValue("website")),
		Status:      model.StatusPending,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logAndInternalError(w, r, "creating suggested shop", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, RouteRoot, "Thanks! Your suggestion will appear once approved.")
}

// Events renders the upcoming events calendar.
func (h *FrontendHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.queries.ListUpcomingEvents(r.Context(), time.Now(), 100)
	if err != nil {
		logAndInternalError(w, r, "listing events", err)
		return
	}

	err = h.renderer.Render(w, r, "site/events", render.TemplateData{
		Title:    "What's On",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Events []store.Event
		}{events},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering events", err)
	}
}

// Offers renders offers currently inside their window.
func (h *FrontendHandler) Offers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.queries.ListCurrentOffers(r.Context(), time.Now())
	if err != nil {
		logAndInternalError(w, r, "listing offers", err)
		return
	}

	shops, err := h.queries.ListVisibleShops(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing shops", err)
		return
	}
	shopNames := make(map[int64]string, len(shops))
	for _, s := range shops {
		shopNames[s.ID] = s.Name
	}

	err = h.renderer.Render(w, r, "site/offers", render.TemplateData{
		Title:    "Offers",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Offers    []store.Offer
			ShopNames map[int64]string
		}{offers, shopNames},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering offers", err)
	}
}

// Charities renders active charities with their running campaigns.
func (h *FrontendHandler) Charities(w http.ResponseWriter, r *http.Request) {
	charities, err := h.queries.ListActiveCharities(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing charities", err)
		return
	}

	campaigns, err := h.queries.ListActiveCampaigns(r.Context(), time.Now())
	if err != nil {
		logAndInternalError(w, r, "listing campaigns", err)
		return
	}

	err = h.renderer.Render(w, r, "site/charities", render.TemplateData{
		Title:    "Charities",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Charities []store.Charity
			Campaigns []store.Campaign
		}{charities, campaigns},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering charities", err)
	}
}

// InfoPage renders a published markdown page. The markdown converts
// server-side and is sanitised before it reaches the template.
func (h *FrontendHandler) InfoPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	page, err := h.queries.GetPublishedInfoPageBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, r, "loading info page", err)
		return
	}

	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(page.Body), &buf); err != nil {
		logAndInternalError(w, r, "rendering markdown", err)
		return
	}
	body := template.HTML(markdownSanitizer.SanitizeBytes(buf.Bytes()))

	err = h.renderer.Render(w, r, "site/info_page", render.TemplateData{
		Title:    page.Title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Page store.InfoPage
			Body template.HTML
		}{page, body},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering info page", err)
	}
}

// Competitions lists active photo competitions.
func (h *FrontendHandler) Competitions(w http.ResponseWriter, r *http.Request) {
	competitions, err := h.queries.ListActiveCompetitions(r.Context())
	if err != nil {
		logAndInternalError(w, r, "listing competitions", err)
		return
	}

	err = h.renderer.Render(w, r, "site/competitions", render.TemplateData{
		Title:    "Photo Competitions",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Competitions []store.Competition
		}{competitions},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering competitions", err)
	}
}

// Gallery renders the approved entries of one competition.
func (h *FrontendHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	competition, entries, err := h.photos.Gallery(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, r, "loading gallery", err)
		return
	}

	err = h.renderer.Render(w, r, "site/gallery", render.TemplateData{
		Title:    competition.Title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Competition store.Competition
			Entries     []store.PhotoEntry
		}{competition, entries},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering gallery", err)
	}
}

// SubmitPhoto accepts a competition entry upload. Entries start
// pending and only reach the gallery after approval.
func (h *FrontendHandler) SubmitPhoto(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	galleryURL := "/competitions/" + slug

	competition, err := h.queries.GetCompetitionBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, r, "loading competition", err)
		return
	}

	// 10 MB upload ceiling
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		flashError(h.renderer, w, r, galleryURL, "The upload was too large or malformed.")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		flashError(h.renderer, w, r, galleryURL, "Please choose a photo to upload.")
		return
	}
	defer func() { _ = file.Close() }()

	_, err = h.photos.SubmitEntry(r.Context(), service.SubmitEntryParams{
		CompetitionID: competition.ID,
		EntrantName:   r.PostFormValue("entrant_name"),
		Caption:       r.PostFormValue("caption"),
		Photo:         file,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) || errors.Is(err, service.ErrNotFound) {
			flashError(h.renderer, w, r, galleryURL, "Could not accept the entry. Check the photo format and your name.")
			return
		}
		logAndInternalError(w, r, "submitting photo entry", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, galleryURL, "Entry received! It will appear once approved.")
}

// Walks renders upcoming dog walks with their attendance counts and
// the sign-up form.
func (h *FrontendHandler) Walks(w http.ResponseWriter, r *http.Request) {
	walks, err := h.queries.ListUpcomingDogWalks(r.Context(), time.Now())
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

	err = h.renderer.Render(w, r, "site/walks", render.TemplateData{
		Title:    "Dog Walks",
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data: struct {
			Walks      []store.DogWalk
			Attendance map[int64]int64
		}{walks, attendance},
	})
	if err != nil {
		logAndInternalError(w, r, "rendering walks", err)
	}
}

// AttendWalk signs an attendee (and optionally their dog) up for a
// walk.
func (h *FrontendHandler) AttendWalk(w http.ResponseWriter, r *http.Request) {
	walkID, err := parseIDParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	walk, err := h.queries.GetDogWalkByID(r.Context(), walkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, r, "loading walk", err)
		return
	}
	if !walk.IsActive || walk.WalkDate.Before(time.Now()) {
		flashError(h.renderer, w, r, "/walks", "That walk is no longer open for sign-ups.")
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(h.renderer, w, r, "/walks", "Invalid form submission.")
		return
	}

	attendeeName := strings.TrimSpace(r.PostFormValue("attendee_name"))
	if attendeeName == "" {
		flashError(h.renderer, w, r, "/walks", "Please tell us your name.")
		return
	}

	_, err = h.queries.CreateWalkAttendance(r.Context(), store.CreateWalkAttendanceParams{
		WalkID:       walk.ID,
		AttendeeName: attendeeName,
		DogName:      strings.TrimSpace(r.PostFormValue("dog_name")),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		logAndInternalError(w, r, "recording attendance", err)
		return
	}

	flashAndRedirect(h.renderer, w, r, "/walks", "See you there!")
}
