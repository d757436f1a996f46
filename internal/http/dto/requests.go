package dto

import "time"

// Auth

type RegisterRequest struct {
	Email    string  `json:"email"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profiles

type UpdateProfileRequest struct {
	Name      *string `json:"name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Website   *string `json:"website,omitempty"`
}

// Groups

type CreateGroupRequest struct {
	Name        string  `json:"name"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Visibility  string  `json:"visibility,omitempty"` // public / unlisted / private
}

type UpdateGroupRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Visibility  *string `json:"visibility,omitempty"`
}

type UpdateMemberRequest struct {
	Role         *string              `json:"role,omitempty"`   // admin / member
	Status       *string              `json:"status,omitempty"` // active / removed
	Capabilities *CapabilitiesRequest `json:"capabilities,omitempty"`
}

type CapabilitiesRequest struct {
	ManageProjects bool `json:"can_manage_projects"`
	ManageWallets  bool `json:"can_manage_wallets"`
	ManageMembers  bool `json:"can_manage_members"`
	PostTimeline   bool `json:"can_post_timeline"`
}

// Projects

type CreateProjectRequest struct {
	Title        string  `json:"title"`
	Description  *string `json:"description,omitempty"`
	Category     *string `json:"category,omitempty"`
	Website      *string `json:"website,omitempty"`
	Visibility   string  `json:"visibility,omitempty"`
	GoalSats     *int64  `json:"goal_sats,omitempty"`
	OwnerActorID *string `json:"owner_actor_id,omitempty"` // group-owned when set
}

type UpdateProjectRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Website     *string `json:"website,omitempty"`
	Visibility  *string `json:"visibility,omitempty"`
	GoalSats    *int64  `json:"goal_sats,omitempty"`
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
}

type SupportProjectRequest struct {
	AmountSats int64   `json:"amount_sats"`
	Message    *string `json:"message,omitempty"`
}

// Wallets

type ConnectWalletRequest struct {
	ActorID string `json:"actor_id,omitempty"` // defaults to the requester's actor
	Label   string `json:"label"`
	Address string `json:"address"`
	Network string `json:"network,omitempty"` // mainnet / testnet
}

type RecordTransactionRequest struct {
	TxID       string     `json:"txid"`
	Direction  string     `json:"direction"` // incoming / outgoing
	AmountSats int64      `json:"amount_sats"`
	Memo       *string    `json:"memo,omitempty"`
	ObservedAt *time.Time `json:"observed_at,omitempty"`
}

// Timeline

type PostStatusRequest struct {
	OnActorID  *string `json:"on_actor_id,omitempty"` // defaults to own timeline
	Content    string  `json:"content"`
	Visibility string  `json:"visibility,omitempty"`
}

// Loans

type RequestLoanRequest struct {
	Purpose       string     `json:"purpose"`
	PrincipalSats int64      `json:"principal_sats"`
	Visibility    string     `json:"visibility,omitempty"`
	DueAt         *time.Time `json:"due_at,omitempty"`
}

type RepayLoanRequest struct {
	AmountSats int64   `json:"amount_sats"`
	TxID       *string `json:"txid,omitempty"`
}

// Calendar events

type CreateEventRequest struct {
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	Location     *string    `json:"location,omitempty"`
	Visibility   string     `json:"visibility,omitempty"`
	StartsAt     time.Time  `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	Capacity     *int       `json:"capacity,omitempty"`
	OwnerActorID *string    `json:"owner_actor_id,omitempty"`
}

type UpdateEventRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Visibility  *string    `json:"visibility,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
}

type RSVPRequest struct {
	Status string `json:"status"` // going / interested / declined
}

// Messaging

type StartConversationRequest struct {
	ProfileID *string `json:"profile_id,omitempty"` // direct
	GroupID   *string `json:"group_id,omitempty"`   // group conversation
}

type SendMessageRequest struct {
	Body string `json:"body"`
}

type EditMessageRequest struct {
	Body string `json:"body"`
}

// Assistant

type AssistantPrefsRequest struct {
	Enabled             bool   `json:"enabled"`
	Model               string `json:"model,omitempty"`
	Tone                string `json:"tone,omitempty"`
	ShareProjects       bool   `json:"share_projects"`
	ShareWalletBalances bool   `json:"share_wallet_balances"`
	CustomInstructions  any    `json:"custom_instructions,omitempty"`
}
