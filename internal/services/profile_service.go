package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/auth"
	"github.com/orangecat-platform/backend/internal/config"
	"github.com/orangecat-platform/backend/internal/models"
	"github.com/orangecat-platform/backend/internal/repositories"
)

type ProfileService struct {
	profileRepo *repositories.ProfileRepo
	actors      *ActorService
	auditRepo   *repositories.AuditRepo
	cfg         *config.Config
	log         *zap.Logger
}

func NewProfileService(
	profileRepo *repositories.ProfileRepo,
	actors *ActorService,
	auditRepo *repositories.AuditRepo,
	cfg *config.Config,
	log *zap.Logger,
) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		actors:      actors,
		auditRepo:   auditRepo,
		cfg:         cfg,
		log:         log,
	}
}

// Register creates the profile and its actor, and returns a signed token.
func (s *ProfileService) Register(ctx context.Context, email, username, password string, name *string) (*models.Profile, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("invalid email")
	}
	if len(username) < 3 {
		return nil, "", fmt.Errorf("username must be at least 3 characters")
	}

	hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, "", err
	}

	profile := &models.Profile{
		Email:        email,
		Username:     username,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, "", fmt.Errorf("could not create profile: %w", err)
	}

	if _, err := s.actors.EnsureForProfile(ctx, profile); err != nil {
		// The profile exists; the actor will be created by the backfill
		// sweep if this path fails.
		s.log.Warn("actor creation on register failed",
			zap.String("profile_id", profile.ID.String()),
			zap.Error(err),
		)
	}

	token, err := auth.GenerateJWT(s.cfg.JWTSecret, profile.ID, profile.Username, s.cfg.JWTExpiration)
	if err != nil {
		return nil, "", err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &profile.ID,
		ActorType:      "user",
		Action:         "profile_registered",
		EntityKind:     "profile",
		EntityID:       &profile.ID,
		Meta:           map[string]any{"username": username},
	})

	return profile, token, nil
}

func (s *ProfileService) Login(ctx context.Context, email, password string) (*models.Profile, string, error) {
	profile, err := s.profileRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}
	if !auth.CheckPassword(profile.PasswordHash, password) {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	// Login doubles as the lazy actor backfill for this profile.
	if _, err := s.actors.EnsureForProfile(ctx, profile); err != nil {
		s.log.Warn("actor backfill on login failed",
			zap.String("profile_id", profile.ID.String()),
			zap.Error(err),
		)
	}
	_ = s.profileRepo.UpdateLastActive(ctx, profile.ID)

	token, err := auth.GenerateJWT(s.cfg.JWTSecret, profile.ID, profile.Username, s.cfg.JWTExpiration)
	if err != nil {
		return nil, "", err
	}
	return profile, token, nil
}

func (s *ProfileService) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.profileRepo.GetByID(ctx, id)
}

func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return s.profileRepo.GetByUsername(ctx, username)
}

type UpdateProfileInput struct {
	Name      *string
	Bio       *string
	AvatarURL *string
	Website   *string
}

// Update edits the profile and refreshes the cached identity on its actor so
// later feed items carry the new name.
func (s *ProfileService) Update(ctx context.Context, profileID uuid.UUID, in UpdateProfileInput) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		profile.Name = in.Name
	}
	if in.Bio != nil {
		profile.Bio = in.Bio
	}
	if in.AvatarURL != nil {
		profile.AvatarURL = in.AvatarURL
	}
	if in.Website != nil {
		profile.Website = in.Website
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	if profile.ActorID != nil {
		name := profile.Username
		if profile.Name != nil && *profile.Name != "" {
			name = *profile.Name
		}
		if err := s.actors.RefreshIdentity(ctx, *profile.ActorID, name, profile.AvatarURL); err != nil {
			s.log.Warn("actor identity refresh failed",
				zap.String("actor_id", profile.ActorID.String()),
				zap.Error(err),
			)
		}
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &profileID,
		ActorType:      "user",
		Action:         "profile_updated",
		EntityKind:     "profile",
		EntityID:       &profileID,
		Meta:           map[string]any{},
	})

	return profile, nil
}
