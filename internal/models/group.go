package models

import (
	"time"

	"github.com/google/uuid"
)

// Membership roles
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Membership statuses
const (
	MembershipPending = "pending"
	MembershipActive  = "active"
	MembershipLeft    = "left"
	MembershipRemoved = "removed"
)

type Group struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        *string    `json:"slug,omitempty"`
	Description *string    `json:"description,omitempty"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	Visibility  string     `json:"visibility"` // public / unlisted / private
	ActorID     *uuid.UUID `json:"actor_id,omitempty"`
	MemberCount int        `json:"member_count"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Capabilities is the per-membership permission flag set. Flags are stored
// as columns on group_memberships, not derived from the role at read time,
// so a role change never silently widens an existing member's grants.
type Capabilities struct {
	CanManageProjects bool `json:"can_manage_projects"`
	CanManageWallets  bool `json:"can_manage_wallets"`
	CanManageMembers  bool `json:"can_manage_members"`
	CanPostTimeline   bool `json:"can_post_timeline"`
}

// DefaultCapabilities returns the flag set granted when a member joins with
// the given role.
func DefaultCapabilities(role string) Capabilities {
	switch role {
	case RoleOwner:
		return Capabilities{
			CanManageProjects: true,
			CanManageWallets:  true,
			CanManageMembers:  true,
			CanPostTimeline:   true,
		}
	case RoleAdmin:
		return Capabilities{
			CanManageProjects: true,
			CanManageMembers:  true,
			CanPostTimeline:   true,
		}
	default:
		return Capabilities{}
	}
}

type GroupMembership struct {
	ID        uuid.UUID `json:"id"`
	GroupID   uuid.UUID `json:"group_id"`
	ProfileID uuid.UUID `json:"profile_id"`
	Role      string    `json:"role"`   // owner / admin / member
	Status    string    `json:"status"` // pending / active / left / removed
	Capabilities
	JoinedAt  time.Time `json:"joined_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the membership currently grants any access.
func (m *GroupMembership) IsActive() bool {
	return m.Status == MembershipActive
}

func IsValidRole(role string) bool {
	return role == RoleOwner || role == RoleAdmin || role == RoleMember
}
