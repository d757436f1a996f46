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

type TimelineHandler struct {
	timelineService *services.TimelineService
	actorRepo       *repositories.ActorRepo
	feedPageSize    int
	log             *zap.Logger
}

func NewTimelineHandler(timelineService *services.TimelineService, actorRepo *repositories.ActorRepo, feedPageSize int, log *zap.Logger) *TimelineHandler {
	if feedPageSize <= 0 {
		feedPageSize = 20
	}
	return &TimelineHandler{
		timelineService: timelineService,
		actorRepo:       actorRepo,
		feedPageSize:    feedPageSize,
		log:             log,
	}
}

func (h *TimelineHandler) PostStatus(c *fiber.Ctx) error {
	var req dto.PostStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Visibility == "" {
		req.Visibility = models.VisibilityPublic
	}

	profileID := middleware.GetProfileID(c)

	var onActorID uuid.UUID
	if req.OnActorID != nil && *req.OnActorID != "" {
		id, err := uuid.Parse(*req.OnActorID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid on_actor_id"})
		}
		onActorID = id
	} else {
		actor, err := h.actorRepo.GetByProfileID(c.Context(), profileID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "requester has no actor"})
		}
		onActorID = actor.ID
	}

	event, err := h.timelineService.PostStatus(c.Context(), profileID, onActorID, req.Content, req.Visibility)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: event})
}

// Feed serves projection rows. With subject_kind/subject_id it narrows to one
// timeline; bare it is the site-wide public feed.
func (h *TimelineHandler) Feed(c *fiber.Ctx) error {
	filter := repositories.FeedFilter{Limit: h.feedPageSize}
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

	if kind := c.Query("subject_kind"); kind != "" {
		id, err := uuid.Parse(c.Query("subject_id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "subject_kind requires a valid subject_id"})
		}
		ref := models.EntityRef{Kind: kind, ID: id}
		if err := ref.Validate(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		filter.Subject = &ref
	}
	if v := c.Query("actor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid actor_id"})
		}
		filter.ActorID = &id
	}

	items, err := h.timelineService.Feed(c.Context(), middleware.ViewerID(c), filter)
	if err != nil {
		h.log.Error("feed read failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: items})
}

func (h *TimelineHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid event id"})
	}

	if err := h.timelineService.Delete(c.Context(), id, middleware.GetProfileID(c)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
