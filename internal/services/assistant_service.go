package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/orangecat-platform/backend/internal/models"
	"github.com/orangecat-platform/backend/internal/repositories"
)

// AssistantService manages per-profile AI assistant preferences. Context
// sharing (projects, wallet balances) defaults to off and only the profile
// owner can change it.
type AssistantService struct {
	assistantRepo *repositories.AssistantRepo
}

func NewAssistantService(assistantRepo *repositories.AssistantRepo) *AssistantService {
	return &AssistantService{assistantRepo: assistantRepo}
}

func (s *AssistantService) Get(ctx context.Context, profileID uuid.UUID) (*models.AssistantPrefs, error) {
	return s.assistantRepo.Get(ctx, profileID)
}

var validTones = map[string]struct{}{
	"neutral":  {},
	"friendly": {},
	"formal":   {},
}

func (s *AssistantService) Update(ctx context.Context, profileID uuid.UUID, p *models.AssistantPrefs) (*models.AssistantPrefs, error) {
	if p.Model == "" {
		p.Model = "default"
	}
	if p.Tone == "" {
		p.Tone = "neutral"
	}
	if _, ok := validTones[p.Tone]; !ok {
		return nil, fmt.Errorf("invalid tone %q", p.Tone)
	}

	p.ProfileID = profileID
	if err := s.assistantRepo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
