// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/whitstable-shop/site/internal/cache"
	"github.com/whitstable-shop/site/internal/config"
	"github.com/whitstable-shop/site/internal/geoip"
	"github.com/whitstable-shop/site/internal/handler"
	"github.com/whitstable-shop/site/internal/imaging"
	"github.com/whitstable-shop/site/internal/logging"
	"github.com/whitstable-shop/site/internal/middleware"
	"github.com/whitstable-shop/site/internal/render"
	"github.com/whitstable-shop/site/internal/scheduler"
	"github.com/whitstable-shop/site/internal/service"
	"github.com/whitstable-shop/site/internal/session"
	"github.com/whitstable-shop/site/internal/store"
	"github.com/whitstable-shop/site/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// crudHandlers defines the standard CRUD handler methods.
type crudHandlers struct {
	List     http.HandlerFunc
	NewForm  http.HandlerFunc
	Create   http.HandlerFunc
	EditForm http.HandlerFunc
	Update   http.HandlerFunc
	Delete   http.HandlerFunc
}

// registerCRUD registers standard CRUD routes for an admin resource.
// Routes: GET /, GET /new, POST /, GET /{id}, POST /{id}, POST /{id}/delete
func registerCRUD(r chi.Router, base string, h crudHandlers) {
	baseID := base + handler.RouteParamID
	r.Get(base, h.List)
	r.Get(base+handler.RouteSuffixNew, h.NewForm)
	r.Post(base, h.Create)
	r.Get(baseID, h.EditForm)
	r.Post(baseID, h.Update)
	r.Post(baseID+"/delete", h.Delete)
}

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "whitshop - whitstable.shop community site\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WSHOP_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WSHOP_DB_PATH          SQLite database path (default: ./data/whitshop.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WSHOP_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WSHOP_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WSHOP_UPLOADS_DIR      Photo upload directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WSHOP_REDIS_URL        Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WSHOP_GEOIP_DB_PATH    GeoLite2-Country database path (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("whitshop %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	var baseHandler slog.Handler
	if cfg.IsDevelopment() {
		baseHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		baseHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	slog.SetDefault(slog.New(baseHandler))

	// Ensure data and upload directories exist
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the audit log
	logger := slog.New(logging.NewAuditLogHandler(baseHandler, db))
	slog.SetDefault(logger)
	slog.Info("audit log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	// Initialize session manager
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Initialize cache backend and manager
	cacheBackend, err := cache.New(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() {
		if err := cacheBackend.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	cacheManager := cache.NewManager(cacheBackend, store.New(db), time.Duration(cfg.CacheTTL)*time.Second)
	if cfg.UseRedisCache() {
		slog.Info("cache initialized", "backend", "redis", "url", cfg.RedisURL)
	} else {
		slog.Info("cache initialized", "backend", "memory")
	}

	// Initialize template renderer
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	// Initialize GeoIP lookup; reviews still flow without the database file
	geo := geoip.NewLookup()
	if err := geo.Init(cfg.GeoIPDBPath); err != nil {
		slog.Warn("GeoIP lookup disabled", "error", err)
	} else if cfg.GeoIPEnabled() {
		slog.Info("GeoIP lookup initialized", "path", cfg.GeoIPDBPath)
	}

	// Initialize services
	processor := imaging.NewProcessor(cfg.UploadsDir)
	auditService := service.NewAuditService(db)
	moderationService := service.NewModerationService(db, geo)
	photoService := service.NewPhotoService(db, processor)

	// Initialize and start scheduler
	sched := scheduler.New(db, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Create router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.Metrics)

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityConfig))

	r.Use(middleware.RequestPath)
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.LoadSiteConfig(cacheManager))

	// CSRF protection; applied per route group, API routes excluded
	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())
	csrfMiddleware := middleware.CSRF(csrfConfig)
	slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	publicRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, loginProtection, auditService)
	adminHandler := handler.NewAdminHandler(db, renderer, sessionManager)
	categoryHandler := handler.NewCategoryHandler(db, renderer, sessionManager, cacheManager)
	shopHandler := handler.NewShopHandler(db, renderer, sessionManager, auditService)
	eventHandler := handler.NewEventHandler(db, renderer, sessionManager)
	offerHandler := handler.NewOfferHandler(db, renderer, sessionManager)
	charityHandler := handler.NewCharityHandler(db, renderer, sessionManager)
	campaignHandler := handler.NewCampaignHandler(db, renderer, sessionManager)
	quickLinkHandler := handler.NewQuickLinkHandler(db, renderer, sessionManager, cacheManager)
	infoPageHandler := handler.NewInfoPageHandler(db, renderer, sessionManager)
	competitionHandler := handler.NewCompetitionHandler(db, renderer, sessionManager, photoService)
	walkHandler := handler.NewWalkHandler(db, renderer, sessionManager)
	userHandler := handler.NewUserHandler(db, renderer, sessionManager, auditService)
	moderationHandler := handler.NewModerationHandler(db, renderer, sessionManager, moderationService, auditService)
	auditHandler := handler.NewAuditHandler(db, renderer, sessionManager)
	frontendHandler := handler.NewFrontendHandler(db, renderer, sessionManager, cacheManager, moderationService, photoService, cfg.MapToken)
	apiHandler := handler.NewAPIHandler(db, moderationService)
	healthHandler := handler.NewHealthHandler(db)

	// Health check routes
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Public frontend routes
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.OptionalLoadUser(sessionManager, db))

		r.Get(handler.RouteRoot, frontendHandler.Home)
		r.Get("/directory", frontendHandler.Directory)
		r.Get(handler.RouteShops+handler.RouteParamSlug, frontendHandler.ShopDetail)
		r.With(publicRateLimiter.HTMLMiddleware()).
			Post(handler.RouteShops+handler.RouteParamSlug+"/reviews", frontendHandler.SubmitReview)
		r.Get("/suggest", frontendHandler.SuggestShopForm)
		r.With(publicRateLimiter.HTMLMiddleware()).Post("/suggest", frontendHandler.SuggestShop)
		r.Get(handler.RouteEvents, frontendHandler.Events)
		r.Get(handler.RouteOffers, frontendHandler.Offers)
		r.Get(handler.RouteCharities, frontendHandler.Charities)
		r.Get("/pages"+handler.RouteParamSlug, frontendHandler.InfoPage)
		r.Get(handler.RouteCompetitions, frontendHandler.Competitions)
		r.Get(handler.RouteCompetitions+handler.RouteParamSlug, frontendHandler.Gallery)
		r.With(publicRateLimiter.HTMLMiddleware()).
			Post(handler.RouteCompetitions+handler.RouteParamSlug+"/entries", frontendHandler.SubmitPhoto)
		r.Get(handler.RouteWalks, frontendHandler.Walks)
		r.With(publicRateLimiter.HTMLMiddleware()).
			Post(handler.RouteWalks+handler.RouteParamID+"/attend", frontendHandler.AttendWalk)
	})

	// Auth routes with rate limiting and account lockout
	r.Group(func(r chi.Router) {
		r.Use(publicRateLimiter.HTMLMiddleware())
		r.Use(csrfMiddleware)
		r.Use(middleware.OptionalLoadUser(sessionManager, db))
		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Post(handler.RouteLogout, authHandler.Logout)
	})

	// Admin routes (moderator and admin roles)
	r.Route("/admin", func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.Auth(sessionManager))
		r.Use(middleware.LoadUser(sessionManager, db))
		r.Use(middleware.RequireModerator(renderer))

		r.Get(handler.RouteRoot, adminHandler.Dashboard)

		registerCRUD(r, handler.RouteCategories, crudHandlers{
			List: categoryHandler.List, NewForm: categoryHandler.NewForm, Create: categoryHandler.Create,
			EditForm: categoryHandler.EditForm, Update: categoryHandler.Update, Delete: categoryHandler.Delete,
		})
		r.Post(handler.RouteCategories+handler.RouteParamID+handler.RouteSuffixToggle, categoryHandler.Toggle)
		r.Post(handler.RouteCategories+handler.RouteParamID+handler.RouteSuffixReorder, categoryHandler.Reorder)

		registerCRUD(r, handler.RouteShops, crudHandlers{
			List: shopHandler.List, NewForm: shopHandler.NewForm, Create: shopHandler.Create,
			EditForm: shopHandler.EditForm, Update: shopHandler.Update, Delete: shopHandler.Delete,
		})
		r.Post(handler.RouteShops+handler.RouteParamID+"/status", shopHandler.SetStatus)
		r.Post(handler.RouteShops+handler.RouteParamID+"/featured", shopHandler.ToggleFeatured)
		r.Post(handler.RouteShops+handler.RouteParamID+handler.RouteSuffixToggle, shopHandler.Toggle)

		registerCRUD(r, handler.RouteEvents, crudHandlers{
			List: eventHandler.List, NewForm: eventHandler.NewForm, Create: eventHandler.Create,
			EditForm: eventHandler.EditForm, Update: eventHandler.Update, Delete: eventHandler.Delete,
		})
		r.Post(handler.RouteEvents+handler.RouteParamID+"/featured", eventHandler.ToggleFeatured)
		r.Post(handler.RouteEvents+handler.RouteParamID+handler.RouteSuffixToggle, eventHandler.Toggle)

		registerCRUD(r, handler.RouteOffers, crudHandlers{
			List: offerHandler.List, NewForm: offerHandler.NewForm, Create: offerHandler.Create,
			EditForm: offerHandler.EditForm, Update: offerHandler.Update, Delete: offerHandler.Delete,
		})
		r.Post(handler.RouteOffers+handler.RouteParamID+handler.RouteSuffixToggle, offerHandler.Toggle)

		registerCRUD(r, handler.RouteCharities, crudHandlers{
			List: charityHandler.List, NewForm: charityHandler.NewForm, Create: charityHandler.Create,
			EditForm: charityHandler.EditForm, Update: charityHandler.Update, Delete: charityHandler.Delete,
		})
		r.Post(handler.RouteCharities+handler.RouteParamID+handler.RouteSuffixToggle, charityHandler.Toggle)

		registerCRUD(r, handler.RouteCampaigns, crudHandlers{
			List: campaignHandler.List, NewForm: campaignHandler.NewForm, Create: campaignHandler.Create,
			EditForm: campaignHandler.EditForm, Update: campaignHandler.Update, Delete: campaignHandler.Delete,
		})
		r.Post(handler.RouteCampaigns+handler.RouteParamID+handler.RouteSuffixToggle, campaignHandler.Toggle)

		registerCRUD(r, handler.RouteQuickLinks, crudHandlers{
			List: quickLinkHandler.List, NewForm: quickLinkHandler.NewForm, Create: quickLinkHandler.Create,
			EditForm: quickLinkHandler.EditForm, Update: quickLinkHandler.Update, Delete: quickLinkHandler.Delete,
		})
		r.Post(handler.RouteQuickLinks+handler.RouteParamID+handler.RouteSuffixToggle, quickLinkHandler.Toggle)
		r.Post(handler.RouteQuickLinks+handler.RouteParamID+handler.RouteSuffixReorder, quickLinkHandler.Reorder)

		registerCRUD(r, handler.RouteInfoPages, crudHandlers{
			List: infoPageHandler.List, NewForm: infoPageHandler.NewForm, Create: infoPageHandler.Create,
			EditForm: infoPageHandler.EditForm, Update: infoPageHandler.Update, Delete: infoPageHandler.Delete,
		})
		r.Post(handler.RouteInfoPages+handler.RouteParamID+"/publish", infoPageHandler.TogglePublished)

		registerCRUD(r, handler.RouteCompetitions, crudHandlers{
			List: competitionHandler.List, NewForm: competitionHandler.NewForm, Create: competitionHandler.Create,
			EditForm: competitionHandler.EditForm, Update: competitionHandler.Update, Delete: competitionHandler.Delete,
		})
		r.Post(handler.RouteCompetitions+handler.RouteParamID+handler.RouteSuffixToggle, competitionHandler.Toggle)
		r.Get(handler.RouteCompetitions+handler.RouteParamID+"/entries", competitionHandler.Entries)
		r.Post(handler.RouteCompetitions+handler.RouteParamID+"/entries/moderate", competitionHandler.ModerateEntry)
		r.Post(handler.RouteCompetitions+handler.RouteParamID+"/entries/delete", competitionHandler.DeleteEntry)

		registerCRUD(r, handler.RouteWalks, crudHandlers{
			List: walkHandler.List, NewForm: walkHandler.NewForm, Create: walkHandler.Create,
			EditForm: walkHandler.EditForm, Update: walkHandler.Update, Delete: walkHandler.Delete,
		})
		r.Post(handler.RouteWalks+handler.RouteParamID+handler.RouteSuffixToggle, walkHandler.Toggle)
		r.Get(handler.RouteWalks+handler.RouteParamID+"/attendance", walkHandler.Attendance)

		r.Get(handler.RouteModeration, moderationHandler.Queue)
		r.Post(handler.RouteModeration+"/act", moderationHandler.Act)
		r.Post(handler.RouteModeration+"/bulk", moderationHandler.BulkAct)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(renderer))

			registerCRUD(r, handler.RouteUsers, crudHandlers{
				List: userHandler.List, NewForm: userHandler.NewForm, Create: userHandler.Create,
				EditForm: userHandler.EditForm, Update: userHandler.Update, Delete: userHandler.Delete,
			})
			r.Post(handler.RouteUsers+handler.RouteParamID+handler.RouteSuffixToggle, userHandler.Toggle)

			r.Get(handler.RouteAudit, auditHandler.List)
		})
	})

	// REST API v1 routes, no CSRF (origin checks don't fit JSON clients)
	r.Route("/api/v1", func(r chi.Router) {
		apiRateLimiter := middleware.NewGlobalRateLimiter(100, 200)
		r.Use(apiRateLimiter.Middleware())

		// Public endpoints
		r.Get(handler.RouteWalks, apiHandler.ListWalks)
		r.Post(handler.RouteWalks+handler.RouteParamID+"/attendance", apiHandler.AttendWalk)
		r.Post(handler.RouteShops+handler.RouteParamSlug+"/reviews", apiHandler.SubmitReview)

		// Moderator endpoints (session-authenticated)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessionManager))
			r.Use(middleware.LoadUser(sessionManager, db))
			r.Use(middleware.RequireModerator(renderer))

			r.Get(handler.RouteInfoPages, apiHandler.ListInfoPages)
			r.Post(handler.RouteInfoPages, apiHandler.CreateInfoPage)
			r.Get(handler.RouteInfoPages+handler.RouteParamID, apiHandler.GetInfoPage)
			r.Put(handler.RouteInfoPages+handler.RouteParamID, apiHandler.UpdateInfoPage)
			r.Delete(handler.RouteInfoPages+handler.RouteParamID, apiHandler.DeleteInfoPage)

			r.Get(handler.RouteModeration, apiHandler.ModerationQueue)
			r.Post(handler.RouteModeration+"/action", apiHandler.ModerationAct)
			r.Post(handler.RouteModeration+"/bulk", apiHandler.ModerationBulkAct)
		})
	})
	slog.Info("REST API v1 mounted at /api/v1")

	// Static assets and uploaded photos
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
