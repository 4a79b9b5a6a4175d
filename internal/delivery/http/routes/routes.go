package routes

import (
	"ai-job-bot/internal/delivery/http/handler"
	"ai-job-bot/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Runs         *handler.RunHandler
	Postings     *handler.PostingHandler
	Applications *handler.ApplicationHandler
	Stats        *handler.StatsHandler
	AuthMw       *middleware.AuthMiddleware
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.Health.RegisterRoutes(app)

	api := app.Group("/api")
	v1 := api.Group("/v1")

	r.Auth.RegisterRoutes(v1.Group("/auth"))

	// Read surfaces stay open; anything that mutates state sits behind the
	// operator token.
	r.Postings.RegisterRoutes(v1.Group("/jobs"))
	r.Stats.RegisterRoutes(v1)

	protected := v1.Group("", r.AuthMw.Middleware())
	r.Runs.RegisterRoutes(protected.Group("/runs"))
	r.Applications.RegisterRoutes(protected.Group("/applications"))
}
