package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/http/dto"
	"github.com/orangecat-platform/backend/internal/middleware"
	"github.com/orangecat-platform/backend/internal/models"
	"github.com/orangecat-platform/backend/internal/services"
)

type AssistantHandler struct {
	assistantService *services.AssistantService
	log              *zap.Logger
}

func NewAssistantHandler(assistantService *services.AssistantService, log *zap.Logger) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService, log: log}
}

func (h *AssistantHandler) Get(c *fiber.Ctx) error {
	prefs, err := h.assistantService.Get(c.Context(), middleware.GetProfileID(c))
	if err != nil {
		h.log.Error("get assistant prefs failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: prefs})
}

// Put replaces the full preference row. Sharing flags not present in the body
// fall back to false, never to their previous value.
func (h *AssistantHandler) Put(c *fiber.Ctx) error {
	var req dto.AssistantPrefsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	prefs, err := h.assistantService.Update(c.Context(), middleware.GetProfileID(c), &models.AssistantPrefs{
		Enabled:             req.Enabled,
		Model:               req.Model,
		Tone:                req.Tone,
		ShareProjects:       req.ShareProjects,
		ShareWalletBalances: req.ShareWalletBalances,
		CustomInstructions:  req.CustomInstructions,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: prefs})
}
