package handler

import (
	"context"

	"ai-job-bot/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports process liveness plus dependency state. Redis being
// down does not fail the check; the pipeline runs without it.
type HealthHandler struct {
	db    Pinger
	cache Pinger
}

func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	deps := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}
	status := fiber.StatusOK

	if h.db == nil || h.db.Ping(c.Context()) != nil {
		deps["database"] = "unavailable"
		status = fiber.StatusServiceUnavailable
	}
	if h.cache == nil || h.cache.Ping(c.Context()) != nil {
		deps["redis"] = "bypassed"
	}

	if status != fiber.StatusOK {
		return response.Error(c, status, "degraded", deps)
	}
	return response.Success(c, status, response.MessageOK, deps)
}
