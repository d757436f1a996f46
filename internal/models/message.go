package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation kinds
const (
	ConversationDirect = "direct"
	ConversationGroup  = "group"
)

type Conversation struct {
	ID        uuid.UUID  `json:"id"`
	Kind      string     `json:"kind"` // direct / group
	GroupID   *uuid.UUID `json:"group_id,omitempty"`
	CreatedBy uuid.UUID  `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

type ConversationParticipant struct {
	ConversationID uuid.UUID  `json:"conversation_id"`
	ProfileID      uuid.UUID  `json:"profile_id"`
	JoinedAt       time.Time  `json:"joined_at"`
	LastReadAt     *time.Time `json:"last_read_at,omitempty"`
}

type Message struct {
	ID              uuid.UUID  `json:"id"`
	ConversationID  uuid.UUID  `json:"conversation_id"`
	SenderProfileID uuid.UUID  `json:"sender_profile_id"`
	Body            string     `json:"body"`
	Edited          bool       `json:"edited"`
	CreatedAt       time.Time  `json:"created_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}
