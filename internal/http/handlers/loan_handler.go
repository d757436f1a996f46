package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/http/dto"
	"github.com/orangecat-platform/backend/internal/middleware"
	"github.com/orangecat-platform/backend/internal/models"
	"github.com/orangecat-platform/backend/internal/repositories"
	"github.com/orangecat-platform/backend/internal/services"
)

type LoanHandler struct {
	loanService *services.LoanService
	log         *zap.Logger
}

func NewLoanHandler(loanService *services.LoanService, log *zap.Logger) *LoanHandler {
	return &LoanHandler{loanService: loanService, log: log}
}

func (h *LoanHandler) Request(c *fiber.Ctx) error {
	var req dto.RequestLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	loan, err := h.loanService.Request(c.Context(), middleware.GetProfileID(c), services.RequestLoanInput{
		Purpose:       req.Purpose,
		PrincipalSats: req.PrincipalSats,
		Visibility:    req.Visibility,
		DueAt:         req.DueAt,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: loan})
}

func (h *LoanHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid loan id"})
	}

	loan, err := h.loanService.Get(c.Context(), id, middleware.ViewerID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "loan not found"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: loan})
}

func (h *LoanHandler) List(c *fiber.Ctx) error {
	profileID := middleware.GetProfileID(c)
	filter := repositories.LoanFilter{OwnerProfileID: &profileID, Limit: 20}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}

	loans, err := h.loanService.List(c.Context(), filter)
	if err != nil {
		h.log.Error("list loans failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: loans})
}

func (h *LoanHandler) Approve(c *fiber.Ctx) error {
	return h.transition(c, h.loanService.Approve)
}

func (h *LoanHandler) Reject(c *fiber.Ctx) error {
	return h.transition(c, h.loanService.Reject)
}

func (h *LoanHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.loanService.Cancel)
}

func (h *LoanHandler) Fund(c *fiber.Ctx) error {
	return h.transition(c, h.loanService.Fund)
}

func (h *LoanHandler) transition(c *fiber.Ctx, fn func(ctx context.Context, id, requesterID uuid.UUID) (*models.Loan, error)) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid loan id"})
	}

	loan, err := fn(c.Context(), id, middleware.GetProfileID(c))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: loan})
}

func (h *LoanHandler) Repay(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid loan id"})
	}

	var req dto.RepayLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	loan, err := h.loanService.Repay(c.Context(), id, middleware.GetProfileID(c), req.AmountSats, req.TxID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: loan})
}
