package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/adapter/controller/http/handlers"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/adapter/controller/http/middleware"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/adapter/external/opencti"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/adapter/repository/sqlite"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/config"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/metrics"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/usecase/lookup"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/usecase/submission"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := config.SetupLogger(cfg)
	logger.Info("Starting OpenCTI IOC submission connector",
		"env", cfg.App.Env,
		"port", cfg.App.Port,
	)

	if cfg.OpenCTI.URL == "" || cfg.OpenCTI.APIKey == "" {
		logger.Error("OPENCTI_URL and OPENCTI_API_KEY are required")
		os.Exit(1)
	}

	// OpenCTI client and caches
	client := opencti.NewClient(opencti.Config{
		URL:               cfg.OpenCTI.URL,
		APIKey:            cfg.OpenCTI.APIKey,
		Timeout:           cfg.OpenCTI.Timeout,
		RequestsPerSecond: cfg.OpenCTI.RateLimit,
		Burst:             cfg.OpenCTI.RateBurst,
		SearchExact:       cfg.OpenCTI.SearchExact,
		PageSize:          cfg.OpenCTI.PageSize,
	})
	fetcher := opencti.NewCachedFetcher(client, cfg.Lookup.CacheSize, cfg.Lookup.CacheTTL)

	markings := opencti.NewMarkingsCache(client, cfg.Lookup.MarkingsRefresh)
	markings.Start()
	defer markings.Stop()

	// Audit store
	var auditRepo submission.AuditRepository = submission.NopAuditRepository{}
	var auditPinger handlers.Pinger
	if cfg.Audit.Enabled {
		auditConn, err := sqlite.NewConnection(cfg.Audit.DBPath, logger)
		if err != nil {
			logger.Error("Failed to open audit database", "error", err)
			os.Exit(1)
		}
		defer auditConn.Close()
		auditRepo = sqlite.NewAuditRepository(auditConn, logger)
		auditPinger = auditConn
	} else {
		logger.Warn("Audit trail disabled; mutations will not be recorded")
	}

	// Submission defaults profile
	defaults, err := submission.LoadDefaults(cfg.Submission.DefaultsPath)
	if err != nil {
		logger.Error("Failed to load submission defaults", "error", err)
		os.Exit(1)
	}

	perms := lookup.Permissions{DeletableKinds: deletableKinds(cfg.Lookup.DeletableKinds)}
	m := metrics.New()

	// Services
	lookupService := lookup.NewService(fetcher, markings, lookup.Settings{
		APIURL:       client.BaseURL(),
		CanCreate:    cfg.Lookup.CanCreate,
		CanAssociate: cfg.Lookup.CanAssociate,
		Permissions:  perms,
	}, m)

	submissionService := submission.NewService(client, auditRepo, fetcher, perms, defaults, m)

	// Handlers
	lookupHandler := handlers.NewLookupHandler(lookupService)
	itemsHandler := handlers.NewItemsHandler(submissionService)
	markingsHandler := handlers.NewMarkingsHandler(markings)
	auditHandler := handlers.NewAuditHandler(submissionService)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.SecurityHeaders)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Api-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(httprate.LimitByIP(100, time.Minute))

	// Health check and metrics (no auth required)
	r.Get("/health", handlers.HealthCheck(cfg, auditPinger))
	r.Handle("/metrics", promhttp.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Auth))

		r.Post("/lookup", lookupHandler.Lookup)

		r.Route("/items", func(r chi.Router) {
			r.Post("/", itemsHandler.Submit)
			r.Put("/{kind}/{id}", itemsHandler.Edit)
			r.Delete("/{kind}/{id}", itemsHandler.Delete)
		})

		r.Get("/markings", markingsHandler.List)
		r.Get("/audit", auditHandler.Recent)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// deletableKinds filters the configured list down to valid item kinds
func deletableKinds(configured []string) []entity.ItemKind {
	kinds := make([]entity.ItemKind, 0, len(configured))
	for _, k := range configured {
		kind := entity.ItemKind(k)
		if kind.IsValid() {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}
