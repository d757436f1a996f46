package models

import (
	"time"

	"github.com/google/uuid"
)

// Project statuses
const (
	ProjectStatusDraft     = "draft"
	ProjectStatusActive    = "active"
	ProjectStatusPaused    = "paused"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

// Visibility levels shared by projects, groups, and timeline events.
const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"
)

// Valid project status transitions: from -> []to
var ValidProjectTransitions = map[string][]string{
	ProjectStatusDraft:     {ProjectStatusActive, ProjectStatusArchived},
	ProjectStatusActive:    {ProjectStatusPaused, ProjectStatusCompleted, ProjectStatusArchived},
	ProjectStatusPaused:    {ProjectStatusActive, ProjectStatusArchived},
	ProjectStatusCompleted: {ProjectStatusArchived},
	ProjectStatusArchived:  {},
}

func IsValidProjectTransition(from, to string) bool {
	allowed, ok := ValidProjectTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

func IsValidVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityUnlisted || v == VisibilityPrivate
}

// Project is an ownable entity. ActorID is the canonical owner reference;
// OwnerProfileID is the legacy direct owner column kept for rows created
// before the actor backfill. When both are set they must agree.
type Project struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	Category        *string    `json:"category,omitempty"`
	Website         *string    `json:"website,omitempty"`
	Status          string     `json:"status"`
	Visibility      string     `json:"visibility"`
	GoalSats        *int64     `json:"goal_sats,omitempty"`
	RaisedSats      int64      `json:"raised_sats"`
	SupportersCount int        `json:"supporters_count"`
	ActorID         *uuid.UUID `json:"actor_id,omitempty"`
	OwnerProfileID  *uuid.UUID `json:"owner_profile_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Contribution is a fact row backing the raised_sats / supporters_count
// cached aggregates on the project.
type Contribution struct {
	ID                 uuid.UUID `json:"id"`
	ProjectID          uuid.UUID `json:"project_id"`
	SupporterProfileID uuid.UUID `json:"supporter_profile_id"`
	AmountSats         int64     `json:"amount_sats"`
	Message            *string   `json:"message,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
