package handler

import (
	"ai-job-bot/internal/delivery/http/middleware"
	"ai-job-bot/internal/pkg/response"
	"ai-job-bot/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type StatsHandler struct {
	uc usecase.StatsUsecase
}

func NewStatsHandler(uc usecase.StatsUsecase) *StatsHandler {
	return &StatsHandler{uc: uc}
}

func (h *StatsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/stats", h.Aggregate)
}

func (h *StatsHandler) Aggregate(c fiber.Ctx) error {
	stats, err := h.uc.Aggregate(c.Context())
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, stats)
}
