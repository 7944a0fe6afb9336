package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spec-kit/dating-api/internal/api/http/handlers"
	"github.com/spec-kit/dating-api/internal/auth"
	"github.com/spec-kit/dating-api/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Account        *handlers.AccountHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	LoginLimiter   *RateLimiter
	Gatherer       prometheus.Gatherer
}

// NewApp creates the fiber application with the shared error renderer.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               name,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", observability.Handler(cfg.Gatherer))
	}

	api := app.Group("/api")

	account := api.Group("/account")
	account.Post("/register", cfg.Account.Register)
	account.Post("/login", cfg.LoginLimiter.Handler(), cfg.Account.Login)
	account.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Account.Me)

	users := api.Group("/users")
	users.Get("/", cfg.Users.List)
	users.Get("/:username", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Users.Get)
}
