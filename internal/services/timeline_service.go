package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/authz"
	"github.com/orangecat-platform/backend/internal/events"
	"github.com/orangecat-platform/backend/internal/models"
	"github.com/orangecat-platform/backend/internal/repositories"
)

type TimelineService struct {
	timelineRepo *repositories.TimelineRepo
	actorRepo    *repositories.ActorRepo
	policy       *authz.Service
	publisher    events.Publisher
	log          *zap.Logger
}

func NewTimelineService(
	timelineRepo *repositories.TimelineRepo,
	actorRepo *repositories.ActorRepo,
	policy *authz.Service,
	publisher events.Publisher,
	log *zap.Logger,
) *TimelineService {
	return &TimelineService{
		timelineRepo: timelineRepo,
		actorRepo:    actorRepo,
		policy:       policy,
		publisher:    publisher,
		log:          log,
	}
}

// EmitInput describes a timeline event to record. Titles are optional
// denormalized labels copied onto the feed projection.
type EmitInput struct {
	ActorID      uuid.UUID
	EventType    string
	Subject      models.EntityRef
	SubjectTitle *string
	Target       *models.EntityRef
	TargetTitle  *string
	Visibility   string
	Content      *string
	Metadata     any
	OccurredAt   time.Time
}

// Emit validates and records a timeline event together with its feed
// projection row. Called by the other services after their own authorization
// has passed; Emit itself only checks referential integrity.
func (s *TimelineService) Emit(ctx context.Context, in EmitInput) (*models.TimelineEvent, error) {
	if !models.IsValidEventType(in.EventType) {
		return nil, fmt.Errorf("unknown event type %q", in.EventType)
	}
	if err := in.Subject.Validate(); err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	if !models.IsValidVisibility(in.Visibility) {
		return nil, fmt.Errorf("invalid visibility %q", in.Visibility)
	}

	ok, err := s.actorRepo.RefExists(ctx, in.Subject)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("subject %s/%s does not exist", in.Subject.Kind, in.Subject.ID)
	}

	if in.Target != nil {
		if err := in.Target.Validate(); err != nil {
			return nil, fmt.Errorf("invalid target: %w", err)
		}
		ok, err := s.actorRepo.RefExists(ctx, *in.Target)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("target %s/%s does not exist", in.Target.Kind, in.Target.ID)
		}
	}

	actor, err := s.actorRepo.GetByID(ctx, in.ActorID)
	if err != nil {
		return nil, fmt.Errorf("actor not found: %w", err)
	}

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	if in.Metadata == nil {
		in.Metadata = map[string]any{}
	}

	event := &models.TimelineEvent{
		ActorID:    actor.ID,
		EventType:  in.EventType,
		Subject:    in.Subject,
		Target:     in.Target,
		Visibility: in.Visibility,
		Content:    in.Content,
		Metadata:   in.Metadata,
		OccurredAt: occurredAt,
	}

	item := &models.FeedItem{
		ActorID:        actor.ID,
		ActorName:      actor.Name,
		ActorAvatarURL: actor.AvatarURL,
		EventType:      in.EventType,
		SubjectKind:    in.Subject.Kind,
		SubjectID:      in.Subject.ID,
		SubjectTitle:   in.SubjectTitle,
		Visibility:     in.Visibility,
		Content:        in.Content,
		OccurredAt:     occurredAt,
	}
	if in.Target != nil {
		item.TargetKind = &in.Target.Kind
		item.TargetID = &in.Target.ID
		item.TargetTitle = in.TargetTitle
	}

	if err := s.timelineRepo.InsertEvent(ctx, event, item); err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, events.StreamTimeline, events.Event{
		Type: events.EventTimelinePosted,
		Payload: map[string]any{
			"event_id":   event.ID.String(),
			"event_type": event.EventType,
			"actor_id":   actor.ID.String(),
		},
	})

	return event, nil
}

// PostStatus publishes a free-form status update on a profile's or group's
// timeline. Posting on a group timeline needs an active membership with the
// posting capability.
func (s *TimelineService) PostStatus(ctx context.Context, profileID uuid.UUID, onActorID uuid.UUID, content, visibility string) (*models.TimelineEvent, error) {
	if content == "" {
		return nil, fmt.Errorf("status content is empty")
	}

	subject, err := s.actorRepo.GetByID(ctx, onActorID)
	if err != nil {
		return nil, fmt.Errorf("timeline not found: %w", err)
	}

	ok, err := s.policy.CanWrite(ctx, profileID, authz.Ownership{ActorID: &subject.ID}, authz.CapPostTimeline)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("not allowed to post on this timeline")
	}

	// The acting actor is the poster's own, even on a group timeline.
	poster, err := s.actorRepo.GetByProfileID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("poster has no actor: %w", err)
	}

	subjectRef, err := subject.Ref()
	if err != nil {
		return nil, err
	}

	return s.Emit(ctx, EmitInput{
		ActorID:      poster.ID,
		EventType:    models.EventStatusPosted,
		Subject:      subjectRef,
		SubjectTitle: &subject.Name,
		Visibility:   visibility,
		Content:      &content,
	})
}

// Feed returns projection rows. Unauthenticated viewers see public items
// only; the subject's owner sees everything on their own timeline; everyone
// else browsing a specific timeline also gets unlisted items (they already
// have the link).
func (s *TimelineService) Feed(ctx context.Context, viewer *uuid.UUID, f repositories.FeedFilter) ([]models.FeedItem, error) {
	f.Visibilities = []string{models.VisibilityPublic}

	if f.Subject != nil && viewer != nil {
		f.Visibilities = append(f.Visibilities, models.VisibilityUnlisted)

		if f.Subject.Kind == models.RefKindProfile || f.Subject.Kind == models.RefKindGroup {
			own, err := s.ownershipForSubject(ctx, *f.Subject)
			if err == nil {
				allowed, err := s.policy.CanWrite(ctx, *viewer, own, authz.CapPostTimeline)
				if err == nil && allowed {
					f.Visibilities = append(f.Visibilities, models.VisibilityPrivate)
				}
			}
		}
	}

	return s.timelineRepo.Feed(ctx, f)
}

func (s *TimelineService) ownershipForSubject(ctx context.Context, ref models.EntityRef) (authz.Ownership, error) {
	var actor *models.Actor
	var err error
	switch ref.Kind {
	case models.RefKindProfile:
		actor, err = s.actorRepo.GetByProfileID(ctx, ref.ID)
	case models.RefKindGroup:
		actor, err = s.actorRepo.GetByGroupID(ctx, ref.ID)
	default:
		return authz.Ownership{}, fmt.Errorf("subject kind %q has no timeline owner", ref.Kind)
	}
	if err != nil {
		return authz.Ownership{}, err
	}
	return authz.Ownership{ActorID: &actor.ID}, nil
}

// Delete soft-deletes an event. Only the author, or someone who can post on
// the subject timeline, may remove it.
func (s *TimelineService) Delete(ctx context.Context, eventID, profileID uuid.UUID) error {
	event, err := s.timelineRepo.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.DeletedAt != nil {
		return nil
	}

	actor, err := s.actorRepo.GetByID(ctx, event.ActorID)
	if err != nil {
		return err
	}
	authored := actor.Kind == models.ActorKindUser && actor.ProfileID != nil && *actor.ProfileID == profileID

	if !authored {
		own, err := s.ownershipForSubject(ctx, event.Subject)
		if err != nil {
			return fmt.Errorf("not allowed to delete this event")
		}
		ok, err := s.policy.CanWrite(ctx, profileID, own, authz.CapPostTimeline)
		if err != nil || !ok {
			return fmt.Errorf("not allowed to delete this event")
		}
	}

	return s.timelineRepo.SoftDeleteEvent(ctx, eventID)
}
