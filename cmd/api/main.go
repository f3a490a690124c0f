package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/lockbox/internal/auth"
	"github.com/BradenHooton/lockbox/internal/background"
	"github.com/BradenHooton/lockbox/internal/config"
	"github.com/BradenHooton/lockbox/internal/handlers"
	middlewareCustom "github.com/BradenHooton/lockbox/internal/middleware"
	"github.com/BradenHooton/lockbox/internal/repositories"
	"github.com/BradenHooton/lockbox/internal/routes"
	"github.com/BradenHooton/lockbox/internal/services"
	pkgauth "github.com/BradenHooton/lockbox/pkg/auth"
	pkghttp "github.com/BradenHooton/lockbox/pkg/http"
	pkglogger "github.com/BradenHooton/lockbox/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

func main() {
	logLevel := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logLevel.Set(parseLevel(cfg.Server.LogLevel))

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("storage_dir", cfg.Storage.Dir))

	if cfg.Auth.AdminToken == config.DefaultAdminToken {
		logger.Warn("ADMIN_TOKEN is the development placeholder; set it before exposing this service")
	}

	ipConfig, err := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid TRUSTED_PROXIES", slog.Any("error", err))
		os.Exit(1)
	}

	// Storage
	accountRepo, err := repositories.NewAccountRepository(cfg.Storage.Dir, logger)
	if err != nil {
		logger.Error("failed to open account storage", slog.Any("error", err))
		os.Exit(1)
	}

	// Security services
	auditLogger := pkglogger.NewAuditLogger(logger)

	rateLimitService := services.NewRateLimitService(services.RateLimitConfig{
		Window:      cfg.RateLimit.Window,
		MaxRequests: cfg.RateLimit.MaxRequests,
	}, logger)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelay:   cfg.Auth.TimingBaseDelay,
		RandomDelay: cfg.Auth.TimingRandomDelay,
	})

	lockoutPolicy := auth.LockoutPolicy{
		Threshold: cfg.Auth.MaxFailedAttempts,
		Duration:  cfg.Auth.LockoutDuration,
	}

	accountService := services.NewAccountService(
		accountRepo,
		rateLimitService,
		pkgauth.NewBcryptHasher(cfg.Auth.BcryptCost),
		lockoutPolicy,
		timingDelay,
		logger,
		auditLogger,
	)

	cleanupManager := background.NewCleanupManager(rateLimitService, logger, rateLimitService.Window())

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, routes.Deps{
		AccountHandler: handlers.NewAccountHandler(accountService, ipConfig),
		AdminHandler:   handlers.NewAdminHandler(accountService),
		Health:         accountRepo,
		AdminToken:     cfg.Auth.AdminToken,
		AdminRateLimit: middlewareCustom.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.AdminRequestsPerMinute,
			IPConfig:          ipConfig,
		},
		IPConfig: ipConfig,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return cleanupManager.Start(gctx)
	})

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		cleanupManager.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
