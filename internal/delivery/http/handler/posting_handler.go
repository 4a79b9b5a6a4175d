package handler

import (
	"strconv"

	"ai-job-bot/internal/delivery/http/dto"
	"ai-job-bot/internal/delivery/http/middleware"
	"ai-job-bot/internal/pkg/response"
	"ai-job-bot/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type PostingHandler struct {
	uc usecase.PostingUsecase
}

func NewPostingHandler(uc usecase.PostingUsecase) *PostingHandler {
	return &PostingHandler{uc: uc}
}

func (h *PostingHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("", h.List)
}

func (h *PostingHandler) List(c fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	postings, err := h.uc.List(c.Context(), limit, offset)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewPostingListResponse(postings))
}
