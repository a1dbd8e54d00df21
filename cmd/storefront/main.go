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

	"storefront-go/internal/cache"
	"storefront-go/internal/config"
	"storefront-go/internal/handler"
	"storefront-go/internal/logging"
	"storefront-go/internal/middleware"
	"storefront-go/internal/render"
	"storefront-go/internal/scheduler"
	"storefront-go/internal/service"
	"storefront-go/internal/session"
	"storefront-go/internal/store"
	"storefront-go/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Storefront - catalog and news backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STOREFRONT_SESSION_SECRET  Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STOREFRONT_DB_PATH         SQLite database path (default: ./data/storefront.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STOREFRONT_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STOREFRONT_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STOREFRONT_UPLOADS_DIR     Uploaded photo directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STOREFRONT_REDIS_URL       Redis URL for the page cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STOREFRONT_DO_SEED         Create the default admin account on startup\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("storefront %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
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

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

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

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()

	// Seed the admin account on request
	if cfg.DoSeed {
		password := cfg.SeedAdminPass
		if password == "" {
			password = store.DefaultAdminPassword
		}
		if err := store.Seed(ctx, db, cfg.SeedAdminUser, password); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	// Initialize session manager
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Initialize the page cache backend
	var pageCache cache.Cache
	if cfg.UseRedisCache() {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisCacheOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.CachePrefix,
			DefaultTTL: cfg.CacheTTLDuration(),
		})
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		pageCache = redisCache
		slog.Info("page cache initialized", "backend", "redis", "url", cfg.RedisURL)
	} else {
		pageCache = cache.NewMemoryCache(cache.MemoryCacheOptions{
			DefaultTTL:      cfg.CacheTTLDuration(),
			MaxSize:         cfg.CacheMaxSize,
			CleanupInterval: time.Minute,
		})
		slog.Info("page cache initialized", "backend", "memory")
	}
	defer func() {
		if err := pageCache.Close(); err != nil {
			slog.Error("error closing page cache", "error", err)
		}
	}()

	// Initialize template renderer
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		Location:       cfg.Location(),
		Currency:       cfg.Currency,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	// Initialize services
	uploadService := service.NewUploadService(cfg.UploadsDir)
	contentService := service.NewContentService(db, uploadService)
	eventService := service.NewEventService(db)

	// Initialize and start the maintenance scheduler
	sched := scheduler.New(db, eventService, cfg.UploadsDir, logger)
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
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestPath)

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityConfig))

	r.Use(sessionManager.LoadAndSave)

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment()))
	slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	slog.Info("login protection initialized",
		"max_failed_attempts", 5,
		"lockout_duration", "15m",
	)

	rateLimiter := middleware.NewGlobalRateLimiter(cfg.RateLimitPerMinute)
	slog.Info("rate limiter initialized", "requests_per_minute", cfg.RateLimitPerMinute)

	pageCacheMiddleware := middleware.PageCache(middleware.PageCacheConfig{
		Cache:    pageCache,
		TTL:      cfg.CacheTTLDuration(),
		Sessions: sessionManager,
	})

	// Initialize handlers
	publicHandler := handler.NewPublicHandler(db, renderer, sessionManager, cfg.PageSize)
	adminHandler := handler.NewAdminHandler(db, renderer, contentService, uploadService, pageCache)
	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, loginProtection, eventService)
	healthHandler := handler.NewHealthHandler(db, sessionManager)

	r.Get("/health", healthHandler.Health)

	// Public listing routes (rate limited, served from the page cache)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.Middleware())
		r.Use(pageCacheMiddleware)

		r.Get(handler.RouteRoot, publicHandler.Home)
		r.Get(handler.RouteCatalog, publicHandler.Catalog)
		r.Get(handler.RouteCatalog+"/{category:[0-9]+}", publicHandler.Catalog)
		r.Get(handler.RouteNews, publicHandler.News)
	})

	// Admin routes (rate limited, CSRF protected)
	r.Route("/admin", func(r chi.Router) {
		r.Use(rateLimiter.Middleware())
		r.Use(csrfMiddleware)

		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessionManager))
			r.Use(middleware.LoadUser(sessionManager, db))

			r.Get(handler.RouteRoot, adminHandler.Menu)
			r.Get(handler.RouteLogout, authHandler.Logout)
			r.Post(handler.RouteLogout, authHandler.Logout)

			r.Get(handler.RouteItemsAdd, adminHandler.AddItemForm)
			r.Post(handler.RouteItemsAdd, adminHandler.AddItem)
			r.Post(handler.RouteItemsDelete, adminHandler.DeleteItem)

			r.Get(handler.RouteArticlesAdd, adminHandler.AddArticleForm)
			r.Post(handler.RouteArticlesAdd, adminHandler.AddArticle)
			r.Post(handler.RouteArticlesDelete, adminHandler.DeleteArticle)
		})
	})

	// Static file serving from the embedded filesystem
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	// Static assets: cache for 1 year (31536000 seconds)
	staticHandler := middleware.StaticCache(31536000)(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Handle("/static/*", staticHandler)

	// Serve uploaded photos (and their thumbnails) from the uploads directory
	// Uploads: cache for 1 week (604800 seconds)
	uploadsHandler := middleware.StaticCache(604800)(http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	r.Handle("/uploads/*", uploadsHandler)

	// Unknown routes go through the same limiter and cache as listings
	// so repeated probes are throttled and the 404 page caches.
	notFound := rateLimiter.Middleware()(pageCacheMiddleware(http.HandlerFunc(publicHandler.NotFound)))
	r.NotFound(notFound.ServeHTTP)

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Allow for large photo uploads
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
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
