package models

import (
	"time"

	"github.com/google/uuid"
)

// Loan statuses
const (
	LoanStatusRequested = "requested"
	LoanStatusApproved  = "approved"
	LoanStatusFunded    = "funded"
	LoanStatusRepaying  = "repaying"
	LoanStatusRepaid    = "repaid"
	LoanStatusDefaulted = "defaulted"
	LoanStatusRejected  = "rejected"
	LoanStatusCancelled = "cancelled"
)

// Valid loan status transitions: from -> []to
var ValidLoanTransitions = map[string][]string{
	LoanStatusRequested: {LoanStatusApproved, LoanStatusRejected, LoanStatusCancelled},
	LoanStatusApproved:  {LoanStatusFunded, LoanStatusCancelled},
	LoanStatusFunded:    {LoanStatusRepaying, LoanStatusDefaulted},
	LoanStatusRepaying:  {LoanStatusRepaid, LoanStatusDefaulted},
	LoanStatusRepaid:    {},
	LoanStatusDefaulted: {},
	LoanStatusRejected:  {},
	LoanStatusCancelled: {},
}

func IsValidLoanTransition(from, to string) bool {
	allowed, ok := ValidLoanTransitions[from]
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

// Loan is an ownable entity with the same dual-path ownership columns as
// projects. OutstandingSats is cached; repayments are the fact rows.
type Loan struct {
	ID              uuid.UUID  `json:"id"`
	Purpose         string     `json:"purpose"`
	Status          string     `json:"status"`
	Visibility      string     `json:"visibility"`
	PrincipalSats   int64      `json:"principal_sats"`
	OutstandingSats int64      `json:"outstanding_sats"`
	LenderActorID   *uuid.UUID `json:"lender_actor_id,omitempty"`
	DueAt           *time.Time `json:"due_at,omitempty"`
	ActorID         *uuid.UUID `json:"actor_id,omitempty"`
	OwnerProfileID  *uuid.UUID `json:"owner_profile_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type LoanRepayment struct {
	ID         uuid.UUID `json:"id"`
	LoanID     uuid.UUID `json:"loan_id"`
	AmountSats int64     `json:"amount_sats"`
	TxID       *string   `json:"txid,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
