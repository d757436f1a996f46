package handlers

import (
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

type GroupHandler struct {
	groupService *services.GroupService
	log          *zap.Logger
}

func NewGroupHandler(groupService *services.GroupService, log *zap.Logger) *GroupHandler {
	return &GroupHandler{groupService: groupService, log: log}
}

func (h *GroupHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	group, err := h.groupService.Create(c.Context(), middleware.GetProfileID(c), services.CreateGroupInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
		Visibility:  req.Visibility,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: group})
}

func (h *GroupHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid group id"})
	}

	group, err := h.groupService.GetByID(c.Context(), id, middleware.ViewerID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "group not found"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: group})
}

func (h *GroupHandler) List(c *fiber.Ctx) error {
	filter := repositories.GroupFilter{Limit: 20}
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
	if v := c.Query("q"); v != "" {
		filter.Query = &v
	}
	if v := c.Query("member"); v == "me" {
		id := middleware.GetProfileID(c)
		filter.MemberID = &id
	} else {
		// Discovery listings only surface public groups.
		public := models.VisibilityPublic
		filter.Visibility = &public
	}

	groups, err := h.groupService.List(c.Context(), filter)
	if err != nil {
		h.log.Error("list groups failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: groups})
}

func (h *GroupHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid group id"})
	}

	var req dto.UpdateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	group, err := h.groupService.Update(c.Context(), id, middleware.GetProfileID(c), services.UpdateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
		Visibility:  req.Visibility,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: group})
}

func (h *GroupHandler) Join(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid group id"})
	}

	m, err := h.groupService.Join(c.Context(), id, middleware.GetProfileID(c))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: m})
}

func (h *GroupHandler) Leave(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid group id"})
	}

	if err := h.groupService.Leave(c.Context(), id, middleware.GetProfileID(c)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *GroupHandler) ListMembers(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid group id"})
	}

	members, err := h.groupService.ListMembers(c.Context(), id, middleware.ViewerID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "group not found"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: members})
}

func (h *GroupHandler) UpdateMember(c *fiber.Ctx) error {
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid group id"})
	}
	memberID, err := uuid.Parse(c.Params("profileId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid profile id"})
	}

	var req dto.UpdateMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	in := services.MemberChangeInput{Role: req.Role, Status: req.Status}
	if req.Capabilities != nil {
		in.Capabilities = &models.Capabilities{
			CanManageProjects: req.Capabilities.ManageProjects,
			CanManageWallets:  req.Capabilities.ManageWallets,
			CanManageMembers:  req.Capabilities.ManageMembers,
			CanPostTimeline:   req.Capabilities.PostTimeline,
		}
	}

	m, err := h.groupService.UpdateMember(c.Context(), groupID, middleware.GetProfileID(c), memberID, in)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: m})
}
