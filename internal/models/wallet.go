package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction directions
const (
	TxIncoming = "incoming"
	TxOutgoing = "outgoing"
)

// Wallet is a first-class actor-owned Bitcoin wallet record. BalanceSats is
// a cached aggregate over wallet_transactions; it is never a source of
// truth and must always equal recomputation from the fact rows.
type Wallet struct {
	ID          uuid.UUID  `json:"id"`
	ActorID     uuid.UUID  `json:"actor_id"`
	Label       string     `json:"label"`
	Address     string     `json:"address"`
	Network     string     `json:"network"` // mainnet / testnet
	BalanceSats int64      `json:"balance_sats"`
	IsActive    bool       `json:"is_active"`
	ConnectedAt time.Time  `json:"connected_at"`
	RemovedAt   *time.Time `json:"removed_at,omitempty"`
}

type WalletTransaction struct {
	ID         uuid.UUID `json:"id"`
	WalletID   uuid.UUID `json:"wallet_id"`
	TxID       string    `json:"txid"`
	Direction  string    `json:"direction"` // incoming / outgoing
	AmountSats int64     `json:"amount_sats"`
	Memo       *string   `json:"memo,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// SignedAmount returns the balance delta this transaction contributes.
func (t *WalletTransaction) SignedAmount() int64 {
	if t.Direction == TxOutgoing {
		return -t.AmountSats
	}
	return t.AmountSats
}
