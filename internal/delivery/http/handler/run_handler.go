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

type RunHandler struct {
	uc usecase.RunUsecase
}

func NewRunHandler(uc usecase.RunUsecase) *RunHandler {
	return &RunHandler{uc: uc}
}

func (h *RunHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("", h.Trigger)
	r.Get("", h.List)
	r.Get("/:id", h.Get)
}

// Trigger starts a pipeline run. Answers 409 while another run holds the
// lock; the caller polls GET /runs/:id for progress.
func (h *RunHandler) Trigger(c fiber.Ctx) error {
	rn, err := h.uc.Trigger(c.Context(), "api")
	if err != nil {
		if errors.Is(err, usecase.ErrRunInProgress) {
			return middleware.NewAppError(fiber.StatusConflict, "A run is already in progress", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusAccepted, "run started", dto.NewRunResponse(rn))
}

func (h *RunHandler) List(c fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	runs, err := h.uc.List(c.Context(), limit)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewRunListResponse(runs))
}

func (h *RunHandler) Get(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid run id", nil, err)
	}

	rn, err := h.uc.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrRunNotFound) {
			return middleware.NewAppError(fiber.StatusNotFound, "Run not found", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewRunResponse(rn))
}
