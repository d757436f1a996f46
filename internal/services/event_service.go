package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/authz"
	"github.com/orangecat-platform/backend/internal/models"
	"github.com/orangecat-platform/backend/internal/repositories"
)

type EventService struct {
	eventRepo *repositories.EventRepo
	actorRepo *repositories.ActorRepo
	auditRepo *repositories.AuditRepo
	policy    *authz.Service
	timeline  *TimelineService
	log       *zap.Logger
}

func NewEventService(
	eventRepo *repositories.EventRepo,
	actorRepo *repositories.ActorRepo,
	auditRepo *repositories.AuditRepo,
	policy *authz.Service,
	timeline *TimelineService,
	log *zap.Logger,
) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		actorRepo: actorRepo,
		auditRepo: auditRepo,
		policy:    policy,
		timeline:  timeline,
		log:       log,
	}
}

type CreateEventInput struct {
	Title        string
	Description  *string
	Location     *string
	Visibility   string
	StartsAt     time.Time
	EndsAt       *time.Time
	Capacity     *int
	OwnerActorID *uuid.UUID
}

func (s *EventService) Create(ctx context.Context, requesterID uuid.UUID, in CreateEventInput) (*models.Event, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("event title is required")
	}
	if in.StartsAt.IsZero() {
		return nil, fmt.Errorf("event start time is required")
	}
	if in.EndsAt != nil && in.EndsAt.Before(in.StartsAt) {
		return nil, fmt.Errorf("event cannot end before it starts")
	}
	if in.Capacity != nil && *in.Capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive")
	}
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}
	if !models.IsValidVisibility(in.Visibility) {
		return nil, fmt.Errorf("invalid visibility %q", in.Visibility)
	}

	var owner *models.Actor
	var err error
	if in.OwnerActorID == nil {
		owner, err = s.actorRepo.GetByProfileID(ctx, requesterID)
		if err != nil {
			return nil, fmt.Errorf("requester has no actor: %w", err)
		}
	} else {
		owner, err = s.actorRepo.GetByID(ctx, *in.OwnerActorID)
		if err != nil {
			return nil, fmt.Errorf("owner actor not found: %w", err)
		}
		ok, err := s.policy.CanWrite(ctx, requesterID, authz.Ownership{ActorID: &owner.ID}, authz.CapManageProjects)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("not allowed to create events under this owner")
		}
	}

	event := &models.Event{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Visibility:  in.Visibility,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		Capacity:    in.Capacity,
		ActorID:     &owner.ID,
	}
	if owner.Kind == models.ActorKindUser {
		event.OwnerProfileID = owner.ProfileID
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &requesterID,
		ActorType:      "user",
		Action:         "event_created",
		EntityKind:     "event",
		EntityID:       &event.ID,
		Meta:           map[string]any{"title": event.Title},
	})

	_, _ = s.timeline.Emit(ctx, EmitInput{
		ActorID:      owner.ID,
		EventType:    models.EventEventScheduled,
		Subject:      models.EntityRef{Kind: models.RefKindEvent, ID: event.ID},
		SubjectTitle: &event.Title,
		Visibility:   event.Visibility,
		Metadata:     map[string]any{"starts_at": event.StartsAt},
	})

	return event, nil
}

func (s *EventService) Get(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	public := event.Visibility != models.VisibilityPrivate
	ok, err := s.policy.CanRead(ctx, viewer, public, authz.Ownership{
		ActorID:        event.ActorID,
		OwnerProfileID: event.OwnerProfileID,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("event not found")
	}
	return event, nil
}

func (s *EventService) List(ctx context.Context, f repositories.EventFilter) ([]models.Event, error) {
	return s.eventRepo.List(ctx, f)
}

type UpdateEventInput struct {
	Title       *string
	Description *string
	Location    *string
	Visibility  *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Capacity    *int
}

func (s *EventService) Update(ctx context.Context, id, requesterID uuid.UUID, in UpdateEventInput) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.policy.CanWrite(ctx, requesterID, authz.Ownership{
		ActorID:        event.ActorID,
		OwnerProfileID: event.OwnerProfileID,
	}, authz.CapManageProjects)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("not allowed to modify this event")
	}

	if in.Title != nil && *in.Title != "" {
		event.Title = *in.Title
	}
	if in.Description != nil {
		event.Description = in.Description
	}
	if in.Location != nil {
		event.Location = in.Location
	}
	if in.Visibility != nil {
		if !models.IsValidVisibility(*in.Visibility) {
			return nil, fmt.Errorf("invalid visibility %q", *in.Visibility)
		}
		event.Visibility = *in.Visibility
	}
	if in.StartsAt != nil {
		event.StartsAt = *in.StartsAt
	}
	if in.EndsAt != nil {
		event.EndsAt = in.EndsAt
	}
	if in.Capacity != nil {
		if *in.Capacity <= 0 {
			return nil, fmt.Errorf("capacity must be positive")
		}
		event.Capacity = in.Capacity
	}
	if event.EndsAt != nil && event.EndsAt.Before(event.StartsAt) {
		return nil, fmt.Errorf("event cannot end before it starts")
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &requesterID,
		ActorType:      "user",
		Action:         "event_updated",
		EntityKind:     "event",
		EntityID:       &id,
		Meta:           map[string]any{},
	})

	return event, nil
}

// RSVP upserts the profile's response. Capacity only gates "going": a full
// event still accepts interested/declined responses.
func (s *EventService) RSVP(ctx context.Context, eventID, profileID uuid.UUID, status string) (*models.EventRSVP, error) {
	if !models.IsValidRSVPStatus(status) {
		return nil, fmt.Errorf("invalid RSVP status %q", status)
	}

	event, err := s.Get(ctx, eventID, &profileID)
	if err != nil {
		return nil, err
	}

	if status == models.RSVPGoing && event.Capacity != nil && event.AttendeeCount >= *event.Capacity {
		return nil, fmt.Errorf("event is full")
	}

	rsvp := &models.EventRSVP{
		EventID:   eventID,
		ProfileID: profileID,
		Status:    status,
	}
	if err := s.eventRepo.UpsertRSVP(ctx, rsvp); err != nil {
		return nil, err
	}
	return rsvp, nil
}
