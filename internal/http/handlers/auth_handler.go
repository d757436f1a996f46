package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/http/dto"
	"github.com/orangecat-platform/backend/internal/services"
)

type AuthHandler struct {
	profileService *services.ProfileService
	log            *zap.Logger
}

func NewAuthHandler(profileService *services.ProfileService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{profileService: profileService, log: log}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Password == "" || len(req.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "password must be at least 8 characters"})
	}

	profile, token, err := h.profileService.Register(c.Context(), req.Email, req.Username, req.Password, req.Name)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.AuthResponse{Token: token, Profile: profile})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	profile, token, err := h.profileService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		// Same message for unknown email and wrong password.
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid credentials"})
	}

	return c.JSON(dto.AuthResponse{Token: token, Profile: profile})
}
