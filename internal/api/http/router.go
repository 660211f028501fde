package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Account        *handlers.AccountHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Post("/register", cfg.Users.Register)
	app.Post("/login", cfg.Users.Login)
	app.Post("/forgot", cfg.Users.Forgot)
	app.Put("/account/password/:token", cfg.Users.ResetPassword)

	// Attached per route so unknown paths still fall through to 404.
	authed := cfg.AuthMiddleware.Handle
	app.Put("/account/password", authed, cfg.Account.UpdatePassword)
	app.Get("/account", authed, cfg.Account.GetAccount)
	app.Put("/account", authed, cfg.Account.PutAccount)
	app.Delete("/account", authed, cfg.Account.DeleteAccount)
	app.Get("/profile", authed, cfg.Account.GetProfile)
	app.Get("/users/:id", authed, cfg.Account.GetUser)
	app.Get("/users", authed, cfg.Account.FindUser)
}
