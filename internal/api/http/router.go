package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/parking-service/internal/api/http/handlers"
	"github.com/spec-kit/parking-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Parking        *handlers.ParkingHandler
	Verification   *handlers.VerificationHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)

	user := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireUser())
	user.Get("/users/me/balance", cfg.Users.Balance)
	user.Patch("/users/me/vehicles/:id", cfg.Users.UpdateVehicle)

	user.Post("/parking/entry", cfg.Parking.Entry)
	user.Post("/parking/exit", cfg.Parking.Exit)
	user.Get("/parking/active", cfg.Parking.Active)
	user.Get("/parking/history", cfg.Parking.History)

	user.Post("/verification/generate", cfg.Verification.Generate)
	user.Post("/verification/validate", cfg.Verification.Validate)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/parking", cfg.Admin.ListSessions)
	admin.Post("/parking/:id/cancel", cfg.Admin.CancelSession)
	admin.Patch("/parking/:id/payment-status", cfg.Admin.OverridePaymentStatus)
	admin.Get("/spots", cfg.Admin.ListSpots)
	admin.Patch("/spots/:id/status", cfg.Admin.SetSpotStatus)
	admin.Patch("/users/:id/status", cfg.Admin.SetUserStatus)
	admin.Post("/users/:id/balance/credit", cfg.Admin.CreditBalance)
}
