package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/http/dto"
	"github.com/orangecat-platform/backend/internal/middleware"
	"github.com/orangecat-platform/backend/internal/models"
	"github.com/orangecat-platform/backend/internal/repositories"
	"github.com/orangecat-platform/backend/internal/services"
)

type WalletHandler struct {
	walletService *services.WalletService
	actorRepo     *repositories.ActorRepo
	log           *zap.Logger
}

func NewWalletHandler(walletService *services.WalletService, actorRepo *repositories.ActorRepo, log *zap.Logger) *WalletHandler {
	return &WalletHandler{walletService: walletService, actorRepo: actorRepo, log: log}
}

// Connect registers a wallet address. actor_id may name a group actor the
// requester manages wallets for; empty means the requester's own actor.
func (h *WalletHandler) Connect(c *fiber.Ctx) error {
	var req dto.ConnectWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	profileID := middleware.GetProfileID(c)

	var actorID uuid.UUID
	if req.ActorID != "" {
		id, err := uuid.Parse(req.ActorID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid actor_id"})
		}
		actorID = id
	} else {
		actor, err := h.actorRepo.GetByProfileID(c.Context(), profileID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "requester has no actor"})
		}
		actorID = actor.ID
	}

	wallet, err := h.walletService.Connect(c.Context(), profileID, actorID, req.Label, req.Address, req.Network)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: wallet})
}

func (h *WalletHandler) Remove(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid wallet id"})
	}

	if err := h.walletService.Remove(c.Context(), id, middleware.GetProfileID(c)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// List returns the wallets of one actor, balances included. Defaults to the
// requester's own actor.
func (h *WalletHandler) List(c *fiber.Ctx) error {
	profileID := middleware.GetProfileID(c)

	var actorID uuid.UUID
	if v := c.Query("actor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid actor_id"})
		}
		actorID = id
	} else {
		actor, err := h.actorRepo.GetByProfileID(c.Context(), profileID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "requester has no actor"})
		}
		actorID = actor.ID
	}

	wallets, err := h.walletService.ListForActor(c.Context(), actorID, profileID)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: wallets})
}

func (h *WalletHandler) RecordTransaction(c *fiber.Ctx) error {
	walletID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid wallet id"})
	}

	var req dto.RecordTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	observedAt := time.Now()
	if req.ObservedAt != nil {
		observedAt = *req.ObservedAt
	}
	t := &models.WalletTransaction{
		WalletID:   walletID,
		TxID:       req.TxID,
		Direction:  req.Direction,
		AmountSats: req.AmountSats,
		Memo:       req.Memo,
		ObservedAt: observedAt,
	}

	if err := h.walletService.RecordTransaction(c.Context(), middleware.GetProfileID(c), t); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: t})
}

func (h *WalletHandler) ListTransactions(c *fiber.Ctx) error {
	walletID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid wallet id"})
	}

	limit, offset := 50, 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	txs, err := h.walletService.ListTransactions(c.Context(), walletID, middleware.GetProfileID(c), limit, offset)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: txs})
}
