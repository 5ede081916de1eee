package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"guidepost/internal/auth"
	"guidepost/internal/bundle"
	"guidepost/internal/config"
	guidesSvc "guidepost/internal/domain/services/guides"
	"guidepost/internal/handler"
	"guidepost/internal/middleware"
	"guidepost/internal/repository/postgres"
	postgresGuides "guidepost/internal/repository/postgres/guides"
	contentSvc "guidepost/internal/service/content"
	"guidepost/internal/service/convert"
	"guidepost/internal/service/fetch"
	guideSvc "guidepost/internal/service/guide"
	journeySvc "guidepost/internal/service/journey"
	"guidepost/internal/trust"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}

	logOutput := io.Writer(os.Stdout)
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to setup log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"dev_mode", cfg.DevMode,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Trust policy: embedded defaults, optionally overridden from disk
	policy, err := trust.LoadPolicy()
	if cfg.TrustPolicyFile != "" {
		policy, err = trust.LoadPolicyFile(cfg.TrustPolicyFile)
	}
	if err != nil {
		log.Fatalf("Failed to load trust policy: %v", err)
	}
	validator := trust.NewValidator(policy, cfg.DevMode)
	if cfg.DevMode {
		logger.Warn("DEV MODE: trust gate widened to localhost and raw content hosts (NEVER use in production!)")
	}

	// Content pipeline
	sanitizer := contentSvc.NewSanitizer(validator)
	parser := contentSvc.NewParser(validator)

	// Fetch cache: redis when configured, in-process otherwise
	var cache fetch.Cache
	if cfg.RedisAddr != "" {
		cache, err = fetch.NewRedisCache(cfg.RedisAddr, config.FetchCacheTTL, logger)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		logger.Info("fetch cache ready", "backend", "redis", "addr", cfg.RedisAddr)
	} else {
		cache = fetch.NewMemoryCache(config.FetchCacheTTL)
		logger.Info("fetch cache ready", "backend", "memory")
	}

	fetcher := fetch.NewFetcher(validator, cache, logger)

	// Bundled guide registry
	bundleRegistry, err := bundle.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load bundled guides: %v", err)
	}
	logger.Info("bundled guides loaded", "count", len(bundleRegistry.List()))

	// JWT verifier (optional; without it mutating routes stay open)
	var jwtVerifier auth.JWTVerifier
	if cfg.JWKSURL != "" {
		jwtVerifier, err = auth.NewJWTVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
	} else {
		logger.Warn("JWKS_URL not set, mutating routes are unauthenticated")
	}

	// Storage is optional: the content pipeline and bundled guides work
	// without a database, guide and journey routes answer 503
	ctx := context.Background()
	var guideService guidesSvc.GuideService
	var journeyService guidesSvc.JourneyService

	if cfg.DatabaseURL != "" {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		logger.Info("database connected",
			"max_conns", 25,
			"min_conns", 5,
		)

		tables := postgres.NewTableNames(cfg.TablePrefix)
		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		}

		guideRepo := postgresGuides.NewGuideRepository(repoConfig)
		journeyRepo := postgresGuides.NewJourneyRepository(repoConfig)
		txManager := postgres.NewTransactionManager(pool)

		guideService = guideSvc.NewGuideService(guideRepo, sanitizer, parser, cfg.DevMode, logger)
		journeyService = journeySvc.NewJourneyService(journeyRepo, guideRepo, txManager, logger)
	} else {
		logger.Warn("DATABASE_URL not set, guide and journey routes will answer 503")
	}

	// Create handlers
	contentHandler := handler.NewContentHandler(sanitizer, parser, fetcher, cfg.DevMode, logger)
	bundleHandler := handler.NewBundleHandler(bundleRegistry, sanitizer, parser, logger)
	guideHandler := handler.NewGuideHandler(guideService, convert.NewRegistry(), logger)
	journeyHandler := handler.NewJourneyHandler(journeyService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(jwtVerifier != nil)

	// Health check
	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Content pipeline routes (public, stateless)
	mux.HandleFunc("POST /api/content/parse", contentHandler.ParseContent)
	mux.HandleFunc("POST /api/content/sanitize", contentHandler.SanitizeContent)
	mux.HandleFunc("POST /api/content/fetch", contentHandler.FetchContent)

	// Bundled guide routes (public)
	mux.HandleFunc("GET /api/bundled", bundleHandler.ListBundled)
	mux.HandleFunc("GET /api/bundled/{id}", bundleHandler.GetBundled)

	// Guide routes; mutations require a verified token when JWKS_URL is set
	mux.Handle("POST /api/guides", requireAuth(http.HandlerFunc(guideHandler.CreateGuide)))
	mux.HandleFunc("GET /api/guides", guideHandler.ListGuides)
	mux.Handle("POST /api/guides/import", requireAuth(http.HandlerFunc(guideHandler.ImportGuides)))
	mux.HandleFunc("GET /api/guides/{id}", guideHandler.GetGuide)
	mux.Handle("PATCH /api/guides/{id}", requireAuth(http.HandlerFunc(guideHandler.UpdateGuide)))
	mux.Handle("DELETE /api/guides/{id}", requireAuth(http.HandlerFunc(guideHandler.DeleteGuide)))
	mux.Handle("POST /api/guides/{id}/blocks", requireAuth(http.HandlerFunc(guideHandler.ApplyBlockOp)))
	mux.HandleFunc("GET /api/guides/{id}/export", guideHandler.ExportGuide)

	// Journey routes
	mux.Handle("POST /api/journeys", requireAuth(http.HandlerFunc(journeyHandler.CreateJourney)))
	mux.HandleFunc("GET /api/journeys", journeyHandler.ListJourneys)
	mux.HandleFunc("GET /api/journeys/{id}", journeyHandler.GetJourney)
	mux.Handle("PATCH /api/journeys/{id}", requireAuth(http.HandlerFunc(journeyHandler.UpdateJourney)))
	mux.Handle("DELETE /api/journeys/{id}", requireAuth(http.HandlerFunc(journeyHandler.DeleteJourney)))
	mux.Handle("PUT /api/journeys/{id}/milestones", requireAuth(http.HandlerFunc(journeyHandler.ReorderMilestones)))

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	root = middleware.Auth(jwtVerifier, logger)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
