package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trafficwatch/problem-service/internal/api/http/handlers"
	"github.com/trafficwatch/problem-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Problems       *handlers.ProblemsHandler
	Reports        *handlers.ReportsHandler
	Uploads        *handlers.UploadsHandler
	AuthMiddleware *auth.AuthMiddleware
	UploadsDir     string
	CreateLimiter  fiber.Handler
	ReportLimiter  fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Static("/uploads", cfg.UploadsDir)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireUser())

	problems := protected.Group("/problems")
	problems.Post("", cfg.CreateLimiter, cfg.Problems.Create)
	problems.Get("", cfg.Problems.List)
	problems.Get("/:id", cfg.Problems.Get)
	problems.Put("/:id", cfg.Problems.Update)
	problems.Delete("/:id", cfg.Problems.Delete)

	protected.Get("/reports/problems", cfg.ReportLimiter, cfg.Reports.Problems)
	protected.Post("/uploads", cfg.Uploads.Upload)
}
