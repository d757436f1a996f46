package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/models"
	"github.com/orangecat-platform/backend/internal/repositories"
)

// ActorService maintains the canonical ownership identities. Actors are
// created lazily: on registration, on group creation, and by the backfill
// sweep for rows that predate the actor model.
type ActorService struct {
	actorRepo   *repositories.ActorRepo
	profileRepo *repositories.ProfileRepo
	log         *zap.Logger
}

func NewActorService(actorRepo *repositories.ActorRepo, profileRepo *repositories.ProfileRepo, log *zap.Logger) *ActorService {
	return &ActorService{actorRepo: actorRepo, profileRepo: profileRepo, log: log}
}

// EnsureForProfile returns the profile's actor, creating it if needed and
// pointing profiles.actor_id at it.
func (s *ActorService) EnsureForProfile(ctx context.Context, profile *models.Profile) (*models.Actor, error) {
	name := profile.Username
	if profile.Name != nil && *profile.Name != "" {
		name = *profile.Name
	}

	actor, err := s.actorRepo.EnsureForProfile(ctx, profile.ID, name, profile.AvatarURL)
	if err != nil {
		return nil, err
	}

	if profile.ActorID == nil {
		if err := s.profileRepo.SetActorID(ctx, profile.ID, actor.ID); err != nil {
			return nil, err
		}
		profile.ActorID = &actor.ID
	}
	return actor, nil
}

func (s *ActorService) GetByID(ctx context.Context, id uuid.UUID) (*models.Actor, error) {
	return s.actorRepo.GetByID(ctx, id)
}

func (s *ActorService) GetBySlug(ctx context.Context, slug string) (*models.Actor, error) {
	return s.actorRepo.GetBySlug(ctx, slug)
}

// RefreshIdentity re-copies the display name and avatar onto the actor after
// a profile or group rename, so feed items written later carry the new name.
func (s *ActorService) RefreshIdentity(ctx context.Context, actorID uuid.UUID, name string, avatarURL *string) error {
	return s.actorRepo.RefreshCachedIdentity(ctx, actorID, name, avatarURL)
}

// BackfillProfiles creates actors for profiles that still lack one. Runs in
// the worker; each row is handled independently so one failure does not stop
// the sweep.
func (s *ActorService) BackfillProfiles(ctx context.Context, batch int) (int, error) {
	profiles, err := s.profileRepo.ListWithoutActor(ctx, batch)
	if err != nil {
		return 0, err
	}

	done := 0
	for i := range profiles {
		if _, err := s.EnsureForProfile(ctx, &profiles[i]); err != nil {
			s.log.Warn("actor backfill failed for profile",
				zap.String("profile_id", profiles[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		done++
	}
	return done, nil
}
