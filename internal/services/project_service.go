package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/authz"
	"github.com/orangecat-platform/backend/internal/models"
	"github.com/orangecat-platform/backend/internal/repositories"
)

type ProjectService struct {
	projectRepo *repositories.ProjectRepo
	actorRepo   *repositories.ActorRepo
	auditRepo   *repositories.AuditRepo
	policy      *authz.Service
	timeline    *TimelineService
	log         *zap.Logger
}

func NewProjectService(
	projectRepo *repositories.ProjectRepo,
	actorRepo *repositories.ActorRepo,
	auditRepo *repositories.AuditRepo,
	policy *authz.Service,
	timeline *TimelineService,
	log *zap.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		actorRepo:   actorRepo,
		auditRepo:   auditRepo,
		policy:      policy,
		timeline:    timeline,
		log:         log,
	}
}

type CreateProjectInput struct {
	Title       string
	Description *string
	Category    *string
	Website     *string
	Visibility  string
	GoalSats    *int64
	// OwnerActorID targets a group-owned project; nil means the requester's
	// own actor.
	OwnerActorID *uuid.UUID
}

// Create makes a draft project owned by the requester's actor, or by a group
// actor when the requester holds the project-management capability there.
func (s *ProjectService) Create(ctx context.Context, requesterID uuid.UUID, in CreateProjectInput) (*models.Project, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("project title is required")
	}
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}
	if !models.IsValidVisibility(in.Visibility) {
		return nil, fmt.Errorf("invalid visibility %q", in.Visibility)
	}
	if in.GoalSats != nil && *in.GoalSats < 0 {
		return nil, fmt.Errorf("goal cannot be negative")
	}

	owner, err := s.resolveWriteActor(ctx, requesterID, in.OwnerActorID, authz.CapManageProjects)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Website:     in.Website,
		Status:      models.ProjectStatusDraft,
		Visibility:  in.Visibility,
		GoalSats:    in.GoalSats,
		ActorID:     &owner.ID,
	}
	if owner.Kind == models.ActorKindUser {
		project.OwnerProfileID = owner.ProfileID
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &requesterID,
		ActorType:      "user",
		Action:         "project_created",
		EntityKind:     "project",
		EntityID:       &project.ID,
		Meta:           map[string]any{"title": project.Title},
	})

	return project, nil
}

// resolveWriteActor returns the actor that will own a new entity, verifying
// the requester may write under it.
func (s *ProjectService) resolveWriteActor(ctx context.Context, requesterID uuid.UUID, ownerActorID *uuid.UUID, cap authz.Capability) (*models.Actor, error) {
	if ownerActorID == nil {
		actor, err := s.actorRepo.GetByProfileID(ctx, requesterID)
		if err != nil {
			return nil, fmt.Errorf("requester has no actor: %w", err)
		}
		return actor, nil
	}

	actor, err := s.actorRepo.GetByID(ctx, *ownerActorID)
	if err != nil {
		return nil, fmt.Errorf("owner actor not found: %w", err)
	}
	ok, err := s.policy.CanWrite(ctx, requesterID, authz.Ownership{ActorID: &actor.ID}, cap)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("not allowed to create under this owner")
	}
	return actor, nil
}

// Get applies the read policy: drafts and private projects are only visible
// to their owner side.
func (s *ProjectService) Get(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	public := project.Visibility == models.VisibilityPublic && project.Status != models.ProjectStatusDraft
	linkVisible := project.Visibility == models.VisibilityUnlisted && project.Status != models.ProjectStatusDraft

	ok, err := s.policy.CanRead(ctx, viewer, public || linkVisible, authz.Ownership{
		ActorID:        project.ActorID,
		OwnerProfileID: project.OwnerProfileID,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("project not found")
	}
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, f repositories.ProjectFilter) ([]models.Project, error) {
	return s.projectRepo.List(ctx, f)
}

type UpdateProjectInput struct {
	Title       *string
	Description *string
	Category    *string
	Website     *string
	Visibility  *string
	GoalSats    *int64
}

func (s *ProjectService) Update(ctx context.Context, id, requesterID uuid.UUID, in UpdateProjectInput) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireWrite(ctx, requesterID, project); err != nil {
		return nil, err
	}

	if in.Title != nil && *in.Title != "" {
		project.Title = *in.Title
	}
	if in.Description != nil {
		project.Description = in.Description
	}
	if in.Category != nil {
		project.Category = in.Category
	}
	if in.Website != nil {
		project.Website = in.Website
	}
	if in.Visibility != nil {
		if !models.IsValidVisibility(*in.Visibility) {
			return nil, fmt.Errorf("invalid visibility %q", *in.Visibility)
		}
		project.Visibility = *in.Visibility
	}
	if in.GoalSats != nil {
		if *in.GoalSats < 0 {
			return nil, fmt.Errorf("goal cannot be negative")
		}
		project.GoalSats = in.GoalSats
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &requesterID,
		ActorType:      "user",
		Action:         "project_updated",
		EntityKind:     "project",
		EntityID:       &id,
		Meta:           map[string]any{},
	})

	return project, nil
}

// ChangeStatus moves the project through its lifecycle. Activating emits the
// creation event to the owner's timeline; completing emits the completion
// event.
func (s *ProjectService) ChangeStatus(ctx context.Context, id, requesterID uuid.UUID, newStatus string) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireWrite(ctx, requesterID, project); err != nil {
		return nil, err
	}

	if !models.IsValidProjectTransition(project.Status, newStatus) {
		return nil, fmt.Errorf("invalid transition from %s to %s", project.Status, newStatus)
	}

	oldStatus := project.Status
	if err := s.projectRepo.UpdateStatus(ctx, id, newStatus); err != nil {
		return nil, err
	}
	project.Status = newStatus

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &requesterID,
		ActorType:      "user",
		Action:         fmt.Sprintf("project_status_%s_to_%s", oldStatus, newStatus),
		EntityKind:     "project",
		EntityID:       &id,
		Meta:           map[string]any{"old_status": oldStatus, "new_status": newStatus},
	})

	var eventType string
	switch newStatus {
	case models.ProjectStatusActive:
		if oldStatus == models.ProjectStatusDraft {
			eventType = models.EventProjectCreated
		}
	case models.ProjectStatusCompleted:
		eventType = models.EventProjectCompleted
	}
	if eventType != "" && project.ActorID != nil {
		_, _ = s.timeline.Emit(ctx, EmitInput{
			ActorID:      *project.ActorID,
			EventType:    eventType,
			Subject:      models.EntityRef{Kind: models.RefKindProject, ID: project.ID},
			SubjectTitle: &project.Title,
			Visibility:   project.Visibility,
		})
	}

	return project, nil
}

// Support records a contribution against an active project. The aggregate
// counters move via the insert trigger; the supporter's timeline gets the
// support event.
func (s *ProjectService) Support(ctx context.Context, projectID, supporterID uuid.UUID, amountSats int64, message *string) (*models.Contribution, error) {
	if amountSats <= 0 {
		return nil, fmt.Errorf("contribution amount must be positive")
	}

	project, err := s.Get(ctx, projectID, &supporterID)
	if err != nil {
		return nil, err
	}
	if project.Status != models.ProjectStatusActive {
		return nil, fmt.Errorf("project is not accepting contributions")
	}

	c := &models.Contribution{
		ProjectID:          projectID,
		SupporterProfileID: supporterID,
		AmountSats:         amountSats,
		Message:            message,
	}
	if err := s.projectRepo.AddContribution(ctx, c); err != nil {
		return nil, err
	}

	if supporterActor, err := s.actorRepo.GetByProfileID(ctx, supporterID); err == nil {
		_, _ = s.timeline.Emit(ctx, EmitInput{
			ActorID:      supporterActor.ID,
			EventType:    models.EventProjectSupported,
			Subject:      models.EntityRef{Kind: models.RefKindProject, ID: projectID},
			SubjectTitle: &project.Title,
			Visibility:   project.Visibility,
			Metadata:     map[string]any{"amount_sats": amountSats},
		})
	}

	return c, nil
}

func (s *ProjectService) ListContributions(ctx context.Context, projectID uuid.UUID, viewer *uuid.UUID, limit, offset int) ([]models.Contribution, error) {
	if _, err := s.Get(ctx, projectID, viewer); err != nil {
		return nil, err
	}
	return s.projectRepo.ListContributions(ctx, projectID, limit, offset)
}

func (s *ProjectService) requireWrite(ctx context.Context, requesterID uuid.UUID, project *models.Project) error {
	ok, err := s.policy.CanWrite(ctx, requesterID, authz.Ownership{
		ActorID:        project.ActorID,
		OwnerProfileID: project.OwnerProfileID,
	}, authz.CapManageProjects)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("not allowed to modify this project")
	}
	return nil
}
