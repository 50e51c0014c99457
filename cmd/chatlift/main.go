package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/chatlift/chatlift/internal/app"
	"github.com/chatlift/chatlift/internal/auth"
	"github.com/chatlift/chatlift/internal/observability"
	"github.com/chatlift/chatlift/internal/platform/cache"
	"github.com/chatlift/chatlift/internal/platform/db"
	"github.com/chatlift/chatlift/internal/rbac"
	"github.com/chatlift/chatlift/internal/seed"
	"github.com/chatlift/chatlift/internal/shared"
	"github.com/chatlift/chatlift/internal/tenants"
	"github.com/chatlift/chatlift/internal/users"
	"github.com/chatlift/chatlift/internal/widgets"
	"github.com/chatlift/chatlift/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// A down redis only disables the login throttle; it never blocks boot.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, login throttle disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	if err := seed.Run(ctx, pool, logger, seed.Options{
		DefaultTenantSlug: cfg.DefaultTenant,
		AdminEmail:        cfg.SeedAdminEmail,
		AdminPassword:     cfg.SeedAdminPassword,
		BcryptCost:        cfg.BcryptCost,
	}); err != nil {
		logger.Error("seed", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	tenantRepo := tenants.NewRepository(pool)
	tenantService := tenants.NewService(tenantRepo, cfg.DefaultTenant)
	tenantMiddleware := tenants.Middleware{Service: tenantService, Logger: logger}

	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo)
	gate := rbac.Gate{Logger: logger}

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, rbacService, jobsClient, logger, cfg.BcryptCost)
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	throttle := auth.NewThrottle(redisClient, cfg.LoginAttemptLimit, cfg.LoginAttemptWindow, logger)
	authHandler := auth.NewHandler(logger, authService, tokenManager, throttle, auditLogger, metrics)
	authMiddleware := auth.Middleware{Tokens: tokenManager, Service: authService, Logger: logger}

	rolesHandler := rbac.NewRolesHandler(logger, rbacService, gate)
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService, gate)

	userRepo := users.NewRepository(pool)
	userService := users.NewService(userRepo)
	usersHandler := users.NewHandler(logger, userService, rbacService, authService, gate)

	tenantsHandler := tenants.NewHandler(logger, tenantService, gate)

	widgetRepo := widgets.NewRepository(pool)
	widgetService := widgets.NewService(widgetRepo)
	widgetsHandler := widgets.NewHandler(logger, widgetService, gate)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		TenantMiddleware:   tenantMiddleware,
		AuthMiddleware:     authMiddleware,
		AuthHandler:        authHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		UsersHandler:       usersHandler,
		TenantsHandler:     tenantsHandler,
		WidgetsHandler:     widgetsHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
