package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/dating-api/internal/api/http"
	"github.com/spec-kit/dating-api/internal/api/http/handlers"
	"github.com/spec-kit/dating-api/internal/auth"
	"github.com/spec-kit/dating-api/internal/config"
	"github.com/spec-kit/dating-api/internal/events"
	"github.com/spec-kit/dating-api/internal/observability"
	"github.com/spec-kit/dating-api/internal/persistence"
	"github.com/spec-kit/dating-api/internal/repository"
	"github.com/spec-kit/dating-api/internal/service"
	"github.com/spec-kit/dating-api/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}

	// token key problems must stop startup before anything listens
	tokenCfg := auth.NewTokenConfig(cfg.Auth)
	tokens, err := auth.NewTokenService(tokenCfg)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}
	params, err := auth.NewValidationParameters(tokenCfg)
	if err != nil {
		return fmt.Errorf("token validation: %w", err)
	}
	validator, err := auth.NewValidator(params)
	if err != nil {
		return fmt.Errorf("token validation: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			return err
		}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	users := repository.NewCachedUserRepository(
		repository.NewUserRepository(pg.PoolHandle()),
		redis.Handle(),
		cfg.Cache.UsersTTL,
		logger,
	)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartCacheInvalidationWorker(dispatcher, users, logger)
	worker.StartActivityLogWorker(dispatcher, logger)

	accounts := service.NewAccountService(cfg.Auth, service.AccountDependencies{
		UserRepo:   users,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	members := service.NewUserService(users)

	loginLimiter := httptransport.NewLoginRateLimiter(cfg.RateLimit)
	defer loginLimiter.Stop()

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:  logger,
		Metrics: metrics,
		CORS:    cfg.CORS,
		Timeout: cfg.App.RequestTimeout(),
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Account:        handlers.NewAccountHandler(accounts),
		Users:          handlers.NewUsersHandler(members),
		AuthMiddleware: auth.NewAuthMiddleware(validator, users, metrics),
		LoginLimiter:   loginLimiter,
		Gatherer:       registry,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			zap.String("addr", cfg.App.Addr()),
			zap.Duration("token_ttl", tokens.TTL()),
			zap.Bool("validate_issuer", params.ValidateIssuer),
			zap.Bool("validate_audience", params.ValidateAudience),
		)
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("fiber listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
