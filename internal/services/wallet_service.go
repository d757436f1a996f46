package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/authz"
	"github.com/orangecat-platform/backend/internal/models"
	"github.com/orangecat-platform/backend/internal/repositories"
)

type WalletService struct {
	walletRepo *repositories.WalletRepo
	actorRepo  *repositories.ActorRepo
	auditRepo  *repositories.AuditRepo
	policy     *authz.Service
	timeline   *TimelineService
	log        *zap.Logger
}

func NewWalletService(
	walletRepo *repositories.WalletRepo,
	actorRepo *repositories.ActorRepo,
	auditRepo *repositories.AuditRepo,
	policy *authz.Service,
	timeline *TimelineService,
	log *zap.Logger,
) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		actorRepo:  actorRepo,
		auditRepo:  auditRepo,
		policy:     policy,
		timeline:   timeline,
		log:        log,
	}
}

// RecomputeBalance folds signed transaction amounts into the balance the
// wallet's cached column should hold. The DB trigger and the reconciliation
// sweep must agree with this fold.
func RecomputeBalance(txs []models.WalletTransaction) int64 {
	var balance int64
	for i := range txs {
		balance += txs[i].SignedAmount()
	}
	return balance
}

// Connect registers a wallet address under an actor. Wallets attached to a
// group actor require the wallet-management capability, which plain admins
// do not hold by default.
func (s *WalletService) Connect(ctx context.Context, requesterID uuid.UUID, actorID uuid.UUID, label, address, network string) (*models.Wallet, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("wallet address is required")
	}
	if network == "" {
		network = "mainnet"
	}
	if network != "mainnet" && network != "testnet" {
		return nil, fmt.Errorf("invalid network %q", network)
	}

	ok, err := s.policy.CanWrite(ctx, requesterID, authz.Ownership{ActorID: &actorID}, authz.CapManageWallets)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("not allowed to manage wallets for this owner")
	}

	w := &models.Wallet{
		ActorID: actorID,
		Label:   label,
		Address: address,
		Network: network,
	}
	if err := s.walletRepo.Create(ctx, w); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &requesterID,
		ActorType:      "user",
		Action:         "wallet_connected",
		EntityKind:     "wallet",
		EntityID:       &w.ID,
		Meta:           map[string]any{"network": network},
	})

	if actor, err := s.actorRepo.GetByID(ctx, actorID); err == nil {
		if ref, err := actor.Ref(); err == nil {
			_, _ = s.timeline.Emit(ctx, EmitInput{
				ActorID:      actorID,
				EventType:    models.EventWalletConnected,
				Subject:      ref,
				SubjectTitle: &actor.Name,
				Visibility:   models.VisibilityPrivate,
			})
		}
	}

	return w, nil
}

func (s *WalletService) Remove(ctx context.Context, walletID, requesterID uuid.UUID) error {
	w, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return err
	}

	ok, err := s.policy.CanWrite(ctx, requesterID, authz.Ownership{ActorID: &w.ActorID}, authz.CapManageWallets)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("not allowed to manage this wallet")
	}

	if err := s.walletRepo.Remove(ctx, walletID); err != nil {
		return err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &requesterID,
		ActorType:      "user",
		Action:         "wallet_removed",
		EntityKind:     "wallet",
		EntityID:       &walletID,
		Meta:           map[string]any{},
	})
	return nil
}

// ListForActor returns active wallets with balances. Balances are never
// public: the caller must pass the wallet-management check for the owning
// actor.
func (s *WalletService) ListForActor(ctx context.Context, actorID, requesterID uuid.UUID) ([]models.Wallet, error) {
	ok, err := s.policy.CanWrite(ctx, requesterID, authz.Ownership{ActorID: &actorID}, authz.CapManageWallets)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("not allowed to view wallets for this owner")
	}
	return s.walletRepo.ListByActor(ctx, actorID)
}

// RecordTransaction ingests an externally observed transaction. Replays of
// the same (wallet, txid) pair are accepted and ignored, so upstream
// observers may deliver at-least-once.
func (s *WalletService) RecordTransaction(ctx context.Context, requesterID uuid.UUID, t *models.WalletTransaction) error {
	if t.AmountSats <= 0 {
		return fmt.Errorf("transaction amount must be positive")
	}
	if t.Direction != models.TxIncoming && t.Direction != models.TxOutgoing {
		return fmt.Errorf("invalid direction %q", t.Direction)
	}
	if t.TxID == "" {
		return fmt.Errorf("txid is required")
	}

	w, err := s.walletRepo.GetByID(ctx, t.WalletID)
	if err != nil {
		return err
	}
	if !w.IsActive {
		return fmt.Errorf("wallet is not active")
	}

	ok, err := s.policy.CanWrite(ctx, requesterID, authz.Ownership{ActorID: &w.ActorID}, authz.CapManageWallets)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("not allowed to record transactions for this wallet")
	}

	err = s.walletRepo.AddTransaction(ctx, t)
	if errors.Is(err, pgx.ErrNoRows) {
		// Duplicate txid: the insert was swallowed by ON CONFLICT. Treated
		// as a successful no-op under the at-least-once ingestion contract.
		s.log.Debug("duplicate wallet transaction ignored",
			zap.String("wallet_id", t.WalletID.String()),
			zap.String("txid", t.TxID),
		)
		return nil
	}
	return err
}

func (s *WalletService) ListTransactions(ctx context.Context, walletID, requesterID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error) {
	w, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	ok, err := s.policy.CanWrite(ctx, requesterID, authz.Ownership{ActorID: &w.ActorID}, authz.CapManageWallets)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("not allowed to view this wallet")
	}
	return s.walletRepo.ListTransactions(ctx, walletID, limit, offset)
}
