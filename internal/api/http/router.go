package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-fix/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Users  *handlers.UsersHandler
	Issues *handlers.IssuesHandler
}

// RegisterRoutes wires HTTP routes. Static /issues paths are registered
// before /issues/:ticket_id so they are not captured as ticket ids.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/register", cfg.Users.Register)
	app.Post("/login", cfg.Users.Login)

	issues := app.Group("/issues")
	issues.Post("/raise", cfg.Issues.Raise)
	issues.Get("/my", cfg.Issues.ListMine)
	issues.Get("/all", cfg.Issues.ListAll)
	issues.Get("/filter", cfg.Issues.Filter)
	issues.Put("/mark-complete/:ticket_id", cfg.Issues.MarkComplete)
	issues.Get("/:ticket_id", cfg.Issues.GetByID)
}
