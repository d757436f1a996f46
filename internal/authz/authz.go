package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/models"
)

var (
	// ErrOwnershipConflict means an entity's actor reference and its legacy
	// owner column name different principals. The check fails closed; the
	// row needs a backfill repair, not a guess.
	ErrOwnershipConflict = errors.New("actor reference disagrees with legacy owner")

	// ErrNoOwner means neither ownership representation is populated.
	ErrNoOwner = errors.New("entity has no owner reference")
)

// Capability names a write-permission flag on a group membership.
type Capability string

const (
	CapManageProjects Capability = "can_manage_projects"
	CapManageWallets  Capability = "can_manage_wallets"
	CapManageMembers  Capability = "can_manage_members"
	CapPostTimeline   Capability = "can_post_timeline"
)

// Ownership carries an entity's two owner representations. ActorID is
// authoritative when set; OwnerProfileID is the legacy column accepted for
// rows the backfill has not reached.
type Ownership struct {
	ActorID        *uuid.UUID
	OwnerProfileID *uuid.UUID
}

// Owner is the resolved effective owner of an entity.
type Owner struct {
	Kind      string // user / group
	ProfileID *uuid.UUID
	GroupID   *uuid.UUID
	ActorID   *uuid.UUID
}

type ActorLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Actor, error)
}

// MembershipLookup is the privilege-bypassing membership check. It must be
// a direct row lookup: implementations may not evaluate any entity policy,
// otherwise a capability check for an entity could re-enter that entity's
// own access check.
type MembershipLookup interface {
	MembershipFor(ctx context.Context, groupID, profileID uuid.UUID) (*models.GroupMembership, error)
}

type Service struct {
	actors      ActorLookup
	memberships MembershipLookup
	log         *zap.Logger
}

func NewService(actors ActorLookup, memberships MembershipLookup, log *zap.Logger) *Service {
	return &Service{actors: actors, memberships: memberships, log: log}
}

// ResolveOwner maps the dual-path ownership columns to a single effective
// owner. When both the actor reference and the legacy column are populated
// they must agree on the underlying profile.
func (s *Service) ResolveOwner(ctx context.Context, own Ownership) (*Owner, error) {
	if own.ActorID != nil {
		actor, err := s.actors.GetByID(ctx, *own.ActorID)
		if err != nil {
			return nil, err
		}
		if err := actor.Validate(); err != nil {
			return nil, err
		}

		if actor.Kind == models.ActorKindUser {
			if own.OwnerProfileID != nil && *own.OwnerProfileID != *actor.ProfileID {
				s.log.Warn("ownership conflict",
					zap.String("actor_id", actor.ID.String()),
					zap.String("actor_profile_id", actor.ProfileID.String()),
					zap.String("legacy_owner_id", own.OwnerProfileID.String()),
				)
				return nil, ErrOwnershipConflict
			}
			return &Owner{Kind: models.ActorKindUser, ProfileID: actor.ProfileID, ActorID: &actor.ID}, nil
		}
		return &Owner{Kind: models.ActorKindGroup, GroupID: actor.GroupID, ActorID: &actor.ID}, nil
	}

	if own.OwnerProfileID != nil {
		return &Owner{Kind: models.ActorKindUser, ProfileID: own.OwnerProfileID}, nil
	}

	return nil, ErrNoOwner
}

// CanRead evaluates the read policy disjunction: public visibility, direct
// ownership, or active membership in the owning group. requester is nil for
// unauthenticated callers.
func (s *Service) CanRead(ctx context.Context, requester *uuid.UUID, public bool, own Ownership) (bool, error) {
	if public {
		return true, nil
	}
	if requester == nil {
		return false, nil
	}

	owner, err := s.ResolveOwner(ctx, own)
	if err != nil {
		if errors.Is(err, ErrNoOwner) {
			return false, nil
		}
		return false, err
	}

	switch owner.Kind {
	case models.ActorKindUser:
		return *owner.ProfileID == *requester, nil
	case models.ActorKindGroup:
		m, err := s.memberships.MembershipFor(ctx, *owner.GroupID, *requester)
		if err != nil || m == nil {
			return false, nil
		}
		return m.IsActive(), nil
	}
	return false, nil
}

// CanWrite evaluates the write policy: the direct owner may always write;
// group members need an active membership and either the owner role or the
// named capability flag.
func (s *Service) CanWrite(ctx context.Context, requester uuid.UUID, own Ownership, cap Capability) (bool, error) {
	owner, err := s.ResolveOwner(ctx, own)
	if err != nil {
		if errors.Is(err, ErrNoOwner) {
			return false, nil
		}
		return false, err
	}

	switch owner.Kind {
	case models.ActorKindUser:
		return *owner.ProfileID == requester, nil
	case models.ActorKindGroup:
		m, err := s.memberships.MembershipFor(ctx, *owner.GroupID, requester)
		if err != nil || m == nil {
			return false, nil
		}
		if !m.IsActive() {
			return false, nil
		}
		if m.Role == models.RoleOwner {
			return true, nil
		}
		return hasCapability(m, cap), nil
	}
	return false, nil
}

func hasCapability(m *models.GroupMembership, cap Capability) bool {
	switch cap {
	case CapManageProjects:
		return m.CanManageProjects
	case CapManageWallets:
		return m.CanManageWallets
	case CapManageMembers:
		return m.CanManageMembers
	case CapPostTimeline:
		return m.CanPostTimeline
	default:
		return false
	}
}
