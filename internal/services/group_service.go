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

type GroupService struct {
	groupRepo *repositories.GroupRepo
	actorRepo *repositories.ActorRepo
	auditRepo *repositories.AuditRepo
	policy    *authz.Service
	timeline  *TimelineService
	log       *zap.Logger
}

func NewGroupService(
	groupRepo *repositories.GroupRepo,
	actorRepo *repositories.ActorRepo,
	auditRepo *repositories.AuditRepo,
	policy *authz.Service,
	timeline *TimelineService,
	log *zap.Logger,
) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		actorRepo: actorRepo,
		auditRepo: auditRepo,
		policy:    policy,
		timeline:  timeline,
		log:       log,
	}
}

type CreateGroupInput struct {
	Name        string
	Slug        *string
	Description *string
	AvatarURL   *string
	Visibility  string
}

// Create inserts the group, its actor, and the creator's owner membership in
// one transaction. A group without an actor or without an owner membership
// is unreachable, so partial creation is never committed.
func (s *GroupService) Create(ctx context.Context, creatorID uuid.UUID, in CreateGroupInput) (*models.Group, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("group name is required")
	}
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}
	if !models.IsValidVisibility(in.Visibility) {
		return nil, fmt.Errorf("invalid visibility %q", in.Visibility)
	}

	tx, err := s.groupRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	group := &models.Group{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		AvatarURL:   in.AvatarURL,
		Visibility:  in.Visibility,
		CreatedBy:   creatorID,
	}
	if err := s.groupRepo.CreateTx(ctx, tx, group); err != nil {
		return nil, fmt.Errorf("could not create group: %w", err)
	}

	actor, err := s.actorRepo.CreateForGroup(ctx, tx, group.ID, group.Name, group.AvatarURL)
	if err != nil {
		return nil, fmt.Errorf("could not create group actor: %w", err)
	}
	if err := s.groupRepo.SetActorIDTx(ctx, tx, group.ID, actor.ID); err != nil {
		return nil, err
	}
	group.ActorID = &actor.ID

	owner := &models.GroupMembership{
		GroupID:      group.ID,
		ProfileID:    creatorID,
		Role:         models.RoleOwner,
		Status:       models.MembershipActive,
		Capabilities: models.DefaultCapabilities(models.RoleOwner),
	}
	if err := s.groupRepo.AddMemberTx(ctx, tx, owner); err != nil {
		return nil, fmt.Errorf("could not create owner membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	group.MemberCount = 1

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &creatorID,
		ActorType:      "user",
		Action:         "group_created",
		EntityKind:     "group",
		EntityID:       &group.ID,
		Meta:           map[string]any{"name": group.Name},
	})

	if creatorActor, err := s.actorRepo.GetByProfileID(ctx, creatorID); err == nil {
		_, _ = s.timeline.Emit(ctx, EmitInput{
			ActorID:      creatorActor.ID,
			EventType:    models.EventGroupCreated,
			Subject:      models.EntityRef{Kind: models.RefKindGroup, ID: group.ID},
			SubjectTitle: &group.Name,
			Visibility:   group.Visibility,
		})
	}

	return group, nil
}

func (s *GroupService) GetByID(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*models.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	public := group.Visibility != models.VisibilityPrivate
	ok, err := s.policy.CanRead(ctx, viewer, public, authz.Ownership{ActorID: group.ActorID})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("group not found")
	}
	return group, nil
}

func (s *GroupService) List(ctx context.Context, f repositories.GroupFilter) ([]models.Group, error) {
	return s.groupRepo.List(ctx, f)
}

type UpdateGroupInput struct {
	Name        *string
	Description *string
	AvatarURL   *string
	Visibility  *string
}

// Update edits group metadata. Requires the owner role or member-management
// capability; renaming refreshes the actor's cached identity.
func (s *GroupService) Update(ctx context.Context, groupID, requesterID uuid.UUID, in UpdateGroupInput) (*models.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	ok, err := s.policy.CanWrite(ctx, requesterID, authz.Ownership{ActorID: group.ActorID}, authz.CapManageMembers)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("not allowed to edit this group")
	}

	if in.Name != nil && *in.Name != "" {
		group.Name = *in.Name
	}
	if in.Description != nil {
		group.Description = in.Description
	}
	if in.AvatarURL != nil {
		group.AvatarURL = in.AvatarURL
	}
	if in.Visibility != nil {
		if !models.IsValidVisibility(*in.Visibility) {
			return nil, fmt.Errorf("invalid visibility %q", *in.Visibility)
		}
		group.Visibility = *in.Visibility
	}

	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, err
	}
	if group.ActorID != nil {
		if err := s.actorRepo.RefreshCachedIdentity(ctx, *group.ActorID, group.Name, group.AvatarURL); err != nil {
			s.log.Warn("group actor identity refresh failed",
				zap.String("actor_id", group.ActorID.String()),
				zap.Error(err),
			)
		}
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &requesterID,
		ActorType:      "user",
		Action:         "group_updated",
		EntityKind:     "group",
		EntityID:       &groupID,
		Meta:           map[string]any{},
	})

	return group, nil
}

// Join adds the requester as a plain member. Public groups admit members
// immediately; private and unlisted groups leave the membership pending
// until someone with member management approves it.
func (s *GroupService) Join(ctx context.Context, groupID, profileID uuid.UUID) (*models.GroupMembership, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	existing, err := s.groupRepo.MembershipFor(ctx, groupID, profileID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.IsActive() {
		return existing, nil
	}
	if existing != nil && existing.Role == models.RoleOwner {
		return nil, fmt.Errorf("owner membership cannot be rejoined as member")
	}

	status := models.MembershipPending
	if group.Visibility == models.VisibilityPublic {
		status = models.MembershipActive
	}

	m := &models.GroupMembership{
		GroupID:   groupID,
		ProfileID: profileID,
		Role:      models.RoleMember,
		Status:    status,
	}
	if err := s.groupRepo.AddMember(ctx, m); err != nil {
		return nil, err
	}

	if status == models.MembershipActive {
		if memberActor, err := s.actorRepo.GetByProfileID(ctx, profileID); err == nil {
			_, _ = s.timeline.Emit(ctx, EmitInput{
				ActorID:      memberActor.ID,
				EventType:    models.EventMemberJoined,
				Subject:      models.EntityRef{Kind: models.RefKindGroup, ID: groupID},
				SubjectTitle: &group.Name,
				Visibility:   group.Visibility,
			})
		}
	}

	return m, nil
}

func (s *GroupService) Leave(ctx context.Context, groupID, profileID uuid.UUID) error {
	m, err := s.groupRepo.MembershipFor(ctx, groupID, profileID)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("not a member")
	}
	if m.Role == models.RoleOwner {
		return fmt.Errorf("the owner cannot leave the group")
	}
	return s.groupRepo.SetMemberStatus(ctx, groupID, profileID, models.MembershipLeft)
}

type MemberChangeInput struct {
	Role         *string
	Status       *string
	Capabilities *models.Capabilities
}

// UpdateMember changes a member's role, status, or capability flags.
// Requires can_manage_members (or owner role). The owner membership itself
// is immutable through this path.
func (s *GroupService) UpdateMember(ctx context.Context, groupID, requesterID, memberID uuid.UUID, in MemberChangeInput) (*models.GroupMembership, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	ok, err := s.policy.CanWrite(ctx, requesterID, authz.Ownership{ActorID: group.ActorID}, authz.CapManageMembers)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("not allowed to manage members")
	}

	m, err := s.groupRepo.MembershipFor(ctx, groupID, memberID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("membership not found")
	}
	if m.Role == models.RoleOwner {
		return nil, fmt.Errorf("the owner membership cannot be changed")
	}

	if in.Role != nil {
		if !models.IsValidRole(*in.Role) || *in.Role == models.RoleOwner {
			return nil, fmt.Errorf("invalid role %q", *in.Role)
		}
		m.Role = *in.Role
		m.Capabilities = models.DefaultCapabilities(*in.Role)
	}
	if in.Capabilities != nil {
		m.Capabilities = *in.Capabilities
	}
	if in.Status != nil {
		switch *in.Status {
		case models.MembershipActive, models.MembershipRemoved:
			m.Status = *in.Status
		default:
			return nil, fmt.Errorf("invalid member status %q", *in.Status)
		}
	}

	if err := s.groupRepo.UpdateMember(ctx, m); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &requesterID,
		ActorType:      "user",
		Action:         "group_member_updated",
		EntityKind:     "group",
		EntityID:       &groupID,
		Meta:           map[string]any{"member_id": memberID.String(), "role": m.Role, "status": m.Status},
	})

	return m, nil
}

func (s *GroupService) ListMembers(ctx context.Context, groupID uuid.UUID, viewer *uuid.UUID) ([]models.GroupMembership, error) {
	if _, err := s.GetByID(ctx, groupID, viewer); err != nil {
		return nil, err
	}
	return s.groupRepo.ListMembers(ctx, groupID)
}
