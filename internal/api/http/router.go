package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deptevents/event-registration/internal/api/http/handlers"
	"github.com/deptevents/event-registration/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Events         *handlers.EventsHandler
	Pages          *handlers.PagesHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	pages := app.Group("", cfg.AuthMiddleware.Optional)
	pages.Get("/", cfg.Pages.Index)
	pages.Get("/partials/events-table", cfg.Pages.EventsTable)

	authGroup := app.Group("/auth")
	if cfg.RateLimiter != nil {
		authGroup.Use(cfg.RateLimiter)
	}
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Get("/verify", cfg.Auth.Verify)
	authGroup.Post("/verify/resend", cfg.Auth.ResendVerification)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Auth.ChangePassword)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	api.Get("/users/me", cfg.Users.Me)
	api.Patch("/users/me", cfg.Users.UpdateMe)
	api.Get("/users/me/participations", cfg.Users.MyParticipations)

	api.Get("/events", cfg.Events.List)
	api.Get("/events/:id", cfg.Events.Get)
	api.Post("/events/:id/join", cfg.Events.Join)
	api.Delete("/events/:id/join", cfg.Events.Leave)
	api.Post("/events/:id/complete", cfg.Events.Complete)

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.Get("/users", cfg.Users.List)
	admin.Patch("/users/:id", cfg.Users.AdminUpdate)
	admin.Post("/events", cfg.Events.Create)
	admin.Patch("/events/:id", cfg.Events.Update)
	admin.Delete("/events/:id", cfg.Events.Delete)
	admin.Post("/events/:id/lock", cfg.Events.Lock)
	admin.Post("/events/:id/unlock", cfg.Events.Unlock)
	admin.Post("/events/:id/finish", cfg.Events.Finish)
	admin.Post("/events/:id/participants/:userID/attendance", cfg.Events.SetAttendance)
}
