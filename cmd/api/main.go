package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/storefront/internal/auth"
	"github.com/BradenHooton/storefront/internal/background"
	"github.com/BradenHooton/storefront/internal/config"
	"github.com/BradenHooton/storefront/internal/database"
	"github.com/BradenHooton/storefront/internal/handlers"
	middlewareCustom "github.com/BradenHooton/storefront/internal/middleware"
	"github.com/BradenHooton/storefront/internal/models"
	"github.com/BradenHooton/storefront/internal/repositories"
	"github.com/BradenHooton/storefront/internal/routes"
	"github.com/BradenHooton/storefront/internal/services"
	pkghttp "github.com/BradenHooton/storefront/pkg/http"
	pkglogger "github.com/BradenHooton/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Server.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.MigrateUp(ctx); err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.Redis.URL, logger)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()

	mailer, err := services.NewSESMailer(ctx, cfg.Email, logger)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	ipConfig, err := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	pendingRepo := repositories.NewPendingRegistrationRepository(redisClient)

	// Initialize security components
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.UserTokenExpiry, cfg.Auth.AdminTokenExpiry)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelay:   cfg.Auth.LoginDelayBase,
		RandomDelay: cfg.Auth.LoginDelayJitter,
	})
	lockout := models.LockoutPolicy{
		MaxFailedAttempts: cfg.Auth.MaxFailedLogins,
		LockDuration:      cfg.Auth.LockoutDuration,
	}
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Initialize services
	authService := services.NewAuthService(userRepo, tokenManager, timingDelay, lockout, logger, auditLogger)
	registrationService := services.NewRegistrationService(userRepo, pendingRepo, mailer, cfg.Auth.OTPExpiry, logger, auditLogger)
	resetService := services.NewPasswordResetService(userRepo, mailer, cfg.Auth.OTPExpiry, cfg.Auth.ResetOTPMaxAttempts, logger, auditLogger)
	adminService := services.NewAdminService(userRepo, logger, auditLogger)

	// Bootstrap the administrator if configured
	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		admin, err := adminService.SeedAdmin(ctx, services.AdminSeed{
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
			Name:     cfg.Admin.Name,
			Phone:    cfg.Admin.Phone,
		})
		if err != nil {
			logger.Error("failed to seed admin user", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("admin user ready", slog.String("user_id", admin.ID))
	} else {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin seeding")
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.NewCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	routes.RegisterRoutes(router, routes.Dependencies{
		Auth:          handlers.NewAuthHandler(authService, ipConfig),
		Registration:  handlers.NewRegistrationHandler(registrationService),
		PasswordReset: handlers.NewPasswordResetHandler(resetService),
		Admin:         handlers.NewAdminHandler(adminService),
		TokenManager:  tokenManager,
		Principals:    userRepo,
		RateLimit: middlewareCustom.RateLimitConfig{
			RequestsPerMinute: cfg.Server.AuthRateLimit,
			IPConfig:          ipConfig,
		},
		Logger: logger,
		HealthChecks: map[string]routes.HealthCheck{
			"database": db.HealthCheck,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	var cleanupManager *background.CleanupManager
	if cfg.Auth.ResetCleanupInterval > 0 {
		cleanupManager = background.NewCleanupManager(userRepo, logger, cfg.Auth.ResetCleanupInterval)
		go cleanupManager.Start(cleanupCtx)
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	if cleanupManager != nil {
		cleanupManager.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
