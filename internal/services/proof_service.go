package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/models"
	"github.com/orangecat-platform/backend/internal/repositories"
	"github.com/orangecat-platform/backend/internal/storage"
)

// ProofService attaches fulfillment proof images to contributions. The
// supporter who made the contribution owns its proofs.
type ProofService struct {
	store       *storage.ProofStore
	projectRepo *repositories.ProjectRepo
	auditRepo   *repositories.AuditRepo
	log         *zap.Logger
}

func NewProofService(
	store *storage.ProofStore,
	projectRepo *repositories.ProjectRepo,
	auditRepo *repositories.AuditRepo,
	log *zap.Logger,
) *ProofService {
	return &ProofService{
		store:       store,
		projectRepo: projectRepo,
		auditRepo:   auditRepo,
		log:         log,
	}
}

func (s *ProofService) Upload(ctx context.Context, requesterID, contributionID uuid.UUID, contentType string, data []byte) (*storage.StoredProof, error) {
	c, err := s.projectRepo.GetContribution(ctx, contributionID)
	if err != nil {
		return nil, fmt.Errorf("contribution not found: %w", err)
	}
	if c.SupporterProfileID != requesterID {
		return nil, fmt.Errorf("only the supporter can attach proofs")
	}

	proof, err := s.store.Upload(ctx, contributionID, contentType, data)
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &requesterID,
		ActorType:      "user",
		Action:         "proof_uploaded",
		EntityKind:     "contribution",
		EntityID:       &contributionID,
		Meta:           map[string]any{"key": proof.Key},
	})

	return proof, nil
}

// Delete removes a proof object. The key itself names the contribution it
// belongs to; that contribution's supporter is the only allowed deleter.
func (s *ProofService) Delete(ctx context.Context, requesterID uuid.UUID, key string) error {
	itemID, err := storage.ParseItemID(key)
	if err != nil {
		return err
	}

	c, err := s.projectRepo.GetContribution(ctx, itemID)
	if err != nil {
		return fmt.Errorf("contribution not found: %w", err)
	}
	if c.SupporterProfileID != requesterID {
		return fmt.Errorf("only the supporter can delete proofs")
	}

	if err := s.store.Delete(ctx, key, itemID); err != nil {
		return err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &requesterID,
		ActorType:      "user",
		Action:         "proof_deleted",
		EntityKind:     "contribution",
		EntityID:       &itemID,
		Meta:           map[string]any{"key": key},
	})
	return nil
}
