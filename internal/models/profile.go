package models

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Username     string     `json:"username"`
	Name         *string    `json:"name,omitempty"`
	Bio          *string    `json:"bio,omitempty"`
	AvatarURL    *string    `json:"avatar_url,omitempty"`
	Website      *string    `json:"website,omitempty"`
	ActorID      *uuid.UUID `json:"actor_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
}

// AssistantPrefs is the per-profile AI assistant preference row (singleton
// per profile).
type AssistantPrefs struct {
	ProfileID           uuid.UUID `json:"profile_id"`
	Enabled             bool      `json:"enabled"`
	Model               string    `json:"model"`
	Tone                string    `json:"tone"` // neutral / friendly / formal
	ShareProjects       bool      `json:"share_projects"`
	ShareWalletBalances bool      `json:"share_wallet_balances"`
	CustomInstructions  any       `json:"custom_instructions,omitempty"` // JSONB
	UpdatedAt           time.Time `json:"updated_at"`
}
