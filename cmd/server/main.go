// Package main is the entry point for the portal server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/ai"
	"github.com/daedong-rise/portal/internal/audit"
	"github.com/daedong-rise/portal/internal/config"
	"github.com/daedong-rise/portal/internal/database"
	"github.com/daedong-rise/portal/internal/handler"
	"github.com/daedong-rise/portal/internal/leadextract"
	"github.com/daedong-rise/portal/internal/logging"
	"github.com/daedong-rise/portal/internal/metrics"
	"github.com/daedong-rise/portal/internal/middleware"
	"github.com/daedong-rise/portal/internal/ratelimit"
	"github.com/daedong-rise/portal/internal/repository"
	"github.com/daedong-rise/portal/internal/service"
	"github.com/daedong-rise/portal/internal/shutdown"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger with runtime level adjustment
	appLogger, err := logging.New(&logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Environment: cfg.Server.Environment,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := appLogger.Zap()
	defer func() { _ = logger.Sync() }()

	logger.Info("starting portal server",
		zap.String("version", version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Environment),
	)

	// Initialize database and run migrations
	ctx := context.Background()
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	// Note: db.Close() is handled by shutdown coordinator

	migrator := database.NewMigrator(db.Pool, logger)
	if err := migrator.MigrateFromFS(ctx, database.MigrationsFS, database.MigrationsDir); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	leadRepo := repository.NewLeadRepository(db.Pool)
	quoteRepo := repository.NewQuoteRepository(db.Pool)
	productRepo := repository.NewProductRepository(db.Pool)
	userRepo := repository.NewUserRepository(db.Pool)
	sessionRepo := repository.NewSessionRepository(db.Pool)

	// Initialize AI client. Without an API key the model interfaces stay
	// nil and every request takes the deterministic path.
	var (
		aiClient  *ai.Client
		estimator service.ModelEstimator
		chatter   service.ModelChatter
		extModel  leadextract.ModelExtractor
	)
	if cfg.OpenAI.APIKey != "" {
		aiClient = ai.NewClient(&cfg.OpenAI, logger)
		estimator = aiClient
		chatter = aiClient
		extModel = aiClient
	} else {
		logger.Warn("no OpenAI API key configured, running with rule-based estimation and canned chat replies")
	}

	// Initialize model call budget limiter for cost control
	budgetCfg := &ratelimit.BudgetConfig{
		MaxPerMinute:  cfg.AIBudget.MaxPerMinute,
		MaxPerHour:    cfg.AIBudget.MaxPerHour,
		MaxPerDay:     cfg.AIBudget.MaxPerDay,
		MaxConcurrent: cfg.AIBudget.MaxConcurrent,
	}
	budget := ratelimit.NewBudgetLimiter(budgetCfg, logger)
	logger.Info("initialized AI budget limiter",
		zap.Int("max_per_minute", budgetCfg.MaxPerMinute),
		zap.Int("max_per_hour", budgetCfg.MaxPerHour),
		zap.Int("max_per_day", budgetCfg.MaxPerDay),
		zap.Int("max_concurrent", budgetCfg.MaxConcurrent),
	)

	// Initialize observability
	metricsCollector := metrics.NewMetrics()
	events := metrics.NewBusinessEventLogger(logger)
	auditLogger := audit.NewLogger(logger)

	// Initialize services
	extractor := leadextract.New(extModel, logger)
	quoteService := service.NewQuoteService(estimator, budget, quoteRepo, leadRepo, logger, metricsCollector, events)
	chatService := service.NewChatService(chatter, extractor, budget, leadRepo, logger, metricsCollector, events)
	productService := service.NewProductService(productRepo, logger)
	adminService := service.NewAdminService(leadRepo, quoteRepo, logger)
	authService := service.NewAuthService(userRepo, sessionRepo, cfg.Auth.SessionDuration, logger)

	// Initialize rate limiters
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
	loginRateLimiter := middleware.NewLoginRateLimiter(logger)

	// Initialize handlers
	quoteHandler := handler.NewQuoteAPIHandler(quoteService, logger)
	chatHandler := handler.NewChatAPIHandler(chatService, logger)
	productHandler := handler.NewProductAPIHandler(productService, logger)
	adminHandler := handler.NewAdminAPIHandler(adminService, auditLogger, logger)
	authHandler := handler.NewAuthHandler(authService, loginRateLimiter, auditLogger, metricsCollector, logger)
	analyticsHandler := handler.NewAnalyticsHandler(events, logger)
	logLevelHandler := handler.NewLogLevelHandler(appLogger.AtomicLevel(), logger)

	// Initialize shutdown coordinator. The readiness probe flips to
	// not-ready as soon as shutdown starts so the load balancer stops
	// routing traffic while requests drain.
	shutdownCoord := shutdown.NewCoordinator(&shutdown.Config{
		Timeout: 30 * time.Second,
	}, logger)
	readyProbe := shutdown.NewReadinessProbe(shutdownCoord)

	healthCfg := handler.HealthHandlerConfig{
		HealthChecker: db,
		ErrorRates:    metricsCollector.ErrorRates,
		Readiness:     readyProbe,
		Logger:        logger,
	}
	if aiClient != nil {
		healthCfg.AIHealthChecker = aiClient
	}
	healthHandler := handler.NewHealthHandler(healthCfg)

	// Initialize request correlation
	correlation := middleware.NewRequestCorrelation(logger)

	// Initialize router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(correlation.Middleware) // First: add correlation IDs
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(metricsCollector.Middleware)
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.RateLimit(rateLimiter))

	// Health and metrics endpoints stay outside /api
	healthHandler.RegisterRoutes(r)
	r.Handle("/metrics", metricsCollector.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.BodySizeLimiterJSON())

		quoteHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		analyticsHandler.RegisterRoutes(api)
		authHandler.RegisterRoutes(api)
		productHandler.RegisterPublicRoutes(api)

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(authHandler.RequireAuth)
			adminHandler.RegisterRoutes(admin)
			productHandler.RegisterAdminRoutes(admin)
			admin.Handle("/log-level", logLevelHandler)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	auditLogger.ServiceStarted(ctx, version, cfg.Server.Environment)

	// Start session cleanup goroutine (respects shutdown signal)
	cleanupDone := make(chan struct{})
	go func() {
		defer close(cleanupDone)
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cleanupCtx := middleware.WithCorrelationID(ctx, "session-cleanup")
				cleanupLog := middleware.LoggerWithCorrelation(cleanupCtx, logger)
				if err := authService.CleanupExpiredSessions(cleanupCtx); err != nil {
					cleanupLog.Error("failed to cleanup expired sessions", zap.Error(err))
				} else {
					cleanupLog.Debug("cleaned up expired sessions")
				}
			case <-shutdownCoord.ShutdownCh():
				logger.Debug("session cleanup goroutine stopping")
				return
			}
		}
	}()

	// Register services for graceful shutdown. Drain lets in-flight
	// requests complete, then cleanup closes connections.
	shutdownCoord.RegisterFunc(shutdown.PhaseDrain, "http-server", func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})

	shutdownCoord.RegisterFunc(shutdown.PhaseCleanup, "session-cleanup", func(ctx context.Context) error {
		// Wait for session cleanup goroutine to finish
		select {
		case <-cleanupDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	shutdownCoord.RegisterFunc(shutdown.PhaseCleanup, "database", func(ctx context.Context) error {
		db.Close()
		return nil
	})

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("received shutdown signal")
	auditLogger.ServiceStopping(ctx, "signal received")

	// Execute graceful shutdown
	if err := shutdownCoord.Shutdown(ctx); err != nil {
		logger.Error("shutdown completed with errors", zap.Error(err))
	}
}
