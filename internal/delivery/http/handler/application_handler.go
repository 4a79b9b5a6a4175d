package handler

import (
	"errors"
	"strconv"

	"ai-job-bot/internal/delivery/http/dto"
	"ai-job-bot/internal/delivery/http/middleware"
	"ai-job-bot/internal/pkg/response"
	"ai-job-bot/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ApplicationHandler struct {
	uc usecase.ApplicationUsecase
}

func NewApplicationHandler(uc usecase.ApplicationUsecase) *ApplicationHandler {
	return &ApplicationHandler{uc: uc}
}

func (h *ApplicationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("", h.List)
	r.Post("/:id/response", h.MarkResponse)
}

func (h *ApplicationHandler) List(c fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	apps, err := h.uc.List(c.Context(), limit, offset)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewApplicationListResponse(apps))
}

func (h *ApplicationHandler) MarkResponse(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid application id", nil, err)
	}

	if err := h.uc.MarkResponse(c.Context(), id); err != nil {
		if errors.Is(err, usecase.ErrApplicationNotFound) {
			return middleware.NewAppError(fiber.StatusNotFound, "Application not found", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}
