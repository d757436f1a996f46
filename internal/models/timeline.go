package models

import (
	"time"

	"github.com/google/uuid"
)

// Timeline event types
const (
	EventProjectCreated   = "project_created"
	EventProjectCompleted = "project_completed"
	EventProjectSupported = "project_supported"
	EventGroupCreated     = "group_created"
	EventMemberJoined     = "member_joined"
	EventLoanFunded       = "loan_funded"
	EventLoanRepaid       = "loan_repaid"
	EventEventScheduled   = "event_scheduled"
	EventWalletConnected  = "wallet_connected"
	EventStatusPosted     = "status_posted"
)

// TimelineEvent is an append-mostly record of an action taken by an actor.
// Subject is the ref whose timeline the event appears on; Target optionally
// names who or what was affected. Both must reference an existing row of a
// registered kind. Events are soft-deleted, never physically removed.
type TimelineEvent struct {
	ID         uuid.UUID  `json:"id"`
	ActorID    uuid.UUID  `json:"actor_id"`
	EventType  string     `json:"event_type"`
	Subject    EntityRef  `json:"subject"`
	Target     *EntityRef `json:"target,omitempty"`
	Visibility string     `json:"visibility"` // public / unlisted / private
	Content    *string    `json:"content,omitempty"`
	Metadata   any        `json:"metadata,omitempty"` // JSONB
	OccurredAt time.Time  `json:"occurred_at"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// FeedItem is the write-time denormalized projection of a timeline event.
// One row per visible event, written in the same transaction, so feed reads
// never join per row. Ordered newest-first by OccurredAt, tie-broken by
// CreatedAt.
type FeedItem struct {
	EventID         uuid.UUID  `json:"event_id"`
	ActorID         uuid.UUID  `json:"actor_id"`
	ActorName       string     `json:"actor_name"`
	ActorAvatarURL  *string    `json:"actor_avatar_url,omitempty"`
	EventType       string     `json:"event_type"`
	SubjectKind     string     `json:"subject_kind"`
	SubjectID       uuid.UUID  `json:"subject_id"`
	SubjectTitle    *string    `json:"subject_title,omitempty"`
	TargetKind      *string    `json:"target_kind,omitempty"`
	TargetID        *uuid.UUID `json:"target_id,omitempty"`
	TargetTitle     *string    `json:"target_title,omitempty"`
	Visibility      string     `json:"visibility"`
	Content         *string    `json:"content,omitempty"`
	PreviewURL      *string    `json:"preview_url,omitempty"`
	PreviewTitle    *string    `json:"preview_title,omitempty"`
	PreviewImageURL *string    `json:"preview_image_url,omitempty"`
	LikesCount      int        `json:"likes_count"`
	CommentsCount   int        `json:"comments_count"`
	OccurredAt      time.Time  `json:"occurred_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

var validEventTypes = map[string]struct{}{
	EventProjectCreated:   {},
	EventProjectCompleted: {},
	EventProjectSupported: {},
	EventGroupCreated:     {},
	EventMemberJoined:     {},
	EventLoanFunded:       {},
	EventLoanRepaid:       {},
	EventEventScheduled:   {},
	EventWalletConnected:  {},
	EventStatusPosted:     {},
}

func IsValidEventType(t string) bool {
	_, ok := validEventTypes[t]
	return ok
}
