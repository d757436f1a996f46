package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/http/dto"
	"github.com/orangecat-platform/backend/internal/middleware"
	"github.com/orangecat-platform/backend/internal/services"
	"github.com/orangecat-platform/backend/internal/storage"
)

type ProofHandler struct {
	proofService *services.ProofService
	log          *zap.Logger
}

func NewProofHandler(proofService *services.ProofService, log *zap.Logger) *ProofHandler {
	return &ProofHandler{proofService: proofService, log: log}
}

// Upload attaches a proof image to a contribution. The raw image bytes are
// the request body; Content-Type carries the MIME type.
func (h *ProofHandler) Upload(c *fiber.Ctx) error {
	contributionID, err := uuid.Parse(c.Params("contributionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid contribution id"})
	}

	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "empty upload"})
	}

	proof, err := h.proofService.Upload(c.Context(), middleware.GetProfileID(c), contributionID, c.Get("Content-Type"), body)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTooLarge):
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, storage.ErrBadMIME):
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(dto.ErrorResponse{Error: err.Error()})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: dto.ProofResponse{Key: proof.Key, URL: proof.URL}})
}

// Delete removes a proof object by its key, passed as a wildcard path.
func (h *ProofHandler) Delete(c *fiber.Ctx) error {
	key := c.Params("*")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "proof key is required"})
	}

	if err := h.proofService.Delete(c.Context(), middleware.GetProfileID(c), key); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
