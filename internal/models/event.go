package models

import (
	"time"

	"github.com/google/uuid"
)

// RSVP statuses
const (
	RSVPGoing      = "going"
	RSVPInterested = "interested"
	RSVPDeclined   = "declined"
)

// Event is a calendar event, ownable like projects. AttendeeCount caches
// the number of "going" RSVPs.
type Event struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	Location       *string    `json:"location,omitempty"`
	Visibility     string     `json:"visibility"`
	StartsAt       time.Time  `json:"starts_at"`
	EndsAt         *time.Time `json:"ends_at,omitempty"`
	Capacity       *int       `json:"capacity,omitempty"`
	AttendeeCount  int        `json:"attendee_count"`
	ActorID        *uuid.UUID `json:"actor_id,omitempty"`
	OwnerProfileID *uuid.UUID `json:"owner_profile_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type EventRSVP struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	ProfileID uuid.UUID `json:"profile_id"`
	Status    string    `json:"status"` // going / interested / declined
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func IsValidRSVPStatus(s string) bool {
	return s == RSVPGoing || s == RSVPInterested || s == RSVPDeclined
}
