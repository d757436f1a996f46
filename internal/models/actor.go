package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Actor kinds
const (
	ActorKindUser  = "user"
	ActorKindGroup = "group"
)

// Actor is the canonical ownership identity. Exactly one of ProfileID /
// GroupID is set, matching Kind. One actor exists per profile (backfilled
// lazily) and one per group (created with the group).
type Actor struct {
	ID        uuid.UUID  `json:"id"`
	Kind      string     `json:"kind"` // user / group
	ProfileID *uuid.UUID `json:"profile_id,omitempty"`
	GroupID   *uuid.UUID `json:"group_id,omitempty"`
	Name      string     `json:"name"`
	AvatarURL *string    `json:"avatar_url,omitempty"`
	Slug      *string    `json:"slug,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Validate enforces the kind/back-reference consistency rule.
func (a *Actor) Validate() error {
	switch a.Kind {
	case ActorKindUser:
		if a.ProfileID == nil || a.GroupID != nil {
			return fmt.Errorf("user actor must reference exactly one profile")
		}
	case ActorKindGroup:
		if a.GroupID == nil || a.ProfileID != nil {
			return fmt.Errorf("group actor must reference exactly one group")
		}
	default:
		return fmt.Errorf("unknown actor kind %q", a.Kind)
	}
	return nil
}

// Ref returns the entity ref of the actor's underlying profile or group.
func (a *Actor) Ref() (EntityRef, error) {
	if err := a.Validate(); err != nil {
		return EntityRef{}, err
	}
	if a.Kind == ActorKindUser {
		return EntityRef{Kind: RefKindProfile, ID: *a.ProfileID}, nil
	}
	return EntityRef{Kind: RefKindGroup, ID: *a.GroupID}, nil
}

// Referencable entity kinds for timeline subject/target refs.
const (
	RefKindProfile = "profile"
	RefKindGroup   = "group"
	RefKindProject = "project"
	RefKindLoan    = "loan"
	RefKindEvent   = "event"
	RefKindWallet  = "wallet"
)

// refTables is the dispatch table for polymorphic refs: kind -> backing
// table. String-typed joins are never built from caller input directly;
// lookups go through this map.
var refTables = map[string]string{
	RefKindProfile: "profiles",
	RefKindGroup:   "groups",
	RefKindProject: "projects",
	RefKindLoan:    "loans",
	RefKindEvent:   "events",
	RefKindWallet:  "wallets",
}

// EntityRef is a tagged reference to a row of a registered kind.
type EntityRef struct {
	Kind string    `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

func (r EntityRef) IsZero() bool {
	return r.Kind == "" && r.ID == uuid.Nil
}

func (r EntityRef) Validate() error {
	if _, ok := refTables[r.Kind]; !ok {
		return fmt.Errorf("unknown entity kind %q", r.Kind)
	}
	if r.ID == uuid.Nil {
		return fmt.Errorf("entity ref requires an id")
	}
	return nil
}

// TableForKind resolves the backing table for a registered ref kind.
func TableForKind(kind string) (string, bool) {
	t, ok := refTables[kind]
	return t, ok
}

// RefKinds returns all registered ref kinds.
func RefKinds() []string {
	kinds := make([]string, 0, len(refTables))
	for k := range refTables {
		kinds = append(kinds, k)
	}
	return kinds
}
