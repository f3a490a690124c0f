package routes

import (
	"log/slog"

	"github.com/BradenHooton/lockbox/internal/handlers"
	"github.com/BradenHooton/lockbox/internal/middleware"
	pkghttp "github.com/BradenHooton/lockbox/pkg/http"
	"github.com/go-chi/chi/v5"
)

// Deps holds everything the route table needs
type Deps struct {
	AccountHandler *handlers.AccountHandler
	AdminHandler   *handlers.AdminHandler
	Health         handlers.HealthChecker
	AdminToken     string
	AdminRateLimit middleware.RateLimitConfig
	IPConfig       *pkghttp.IPConfig
	Logger         *slog.Logger
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Deps) {
	router.Get("/health", handlers.Health(deps.Health))

	// Public routes; the account service applies its own per-source limiter
	router.Post("/register", deps.AccountHandler.Register)
	router.Post("/login", deps.AccountHandler.Login)
	router.Post("/analyze", handlers.Analyze)

	// Admin listing: throttled, then token-checked
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(deps.AdminRateLimit))
		r.Use(middleware.RequireAdminToken(deps.AdminToken, deps.IPConfig, deps.Logger))
		r.Get("/users", deps.AdminHandler.ListUsers)
	})
}
