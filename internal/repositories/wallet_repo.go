package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orangecat-platform/backend/internal/models"
)

type WalletRepo struct {
	pool *pgxpool.Pool
}

func NewWalletRepo(pool *pgxpool.Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, actor_id, label, address, network, balance_sats, is_active, connected_at, removed_at`

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.ActorID, &w.Label, &w.Address, &w.Network,
		&w.BalanceSats, &w.IsActive, &w.ConnectedAt, &w.RemovedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepo) Create(ctx context.Context, w *models.Wallet) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO wallets (actor_id, label, address, network, is_active)
		VALUES ($1, $2, $3, $4, true)
		ON CONFLICT (actor_id, address) DO UPDATE SET
			label = EXCLUDED.label,
			is_active = true,
			removed_at = NULL,
			connected_at = now()
		RETURNING id, balance_sats, is_active, connected_at
	`, w.ActorID, w.Label, w.Address, w.Network).
		Scan(&w.ID, &w.BalanceSats, &w.IsActive, &w.ConnectedAt)
}

func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	return scanWallet(r.pool.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id))
}

func (r *WalletRepo) ListByActor(ctx context.Context, actorID uuid.UUID) ([]models.Wallet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+walletColumns+` FROM wallets
		WHERE actor_id = $1 AND is_active = true
		ORDER BY connected_at DESC
	`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []models.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, *w)
	}
	return wallets, rows.Err()
}

func (r *WalletRepo) Remove(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE wallets SET is_active = false, removed_at = now() WHERE id = $1
	`, id)
	return err
}

// AddTransaction inserts the fact row; the insert trigger maintains the
// cached wallet balance.
func (r *WalletRepo) AddTransaction(ctx context.Context, t *models.WalletTransaction) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO wallet_transactions (wallet_id, txid, direction, amount_sats, memo, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (wallet_id, txid) DO NOTHING
		RETURNING id, created_at
	`, t.WalletID, t.TxID, t.Direction, t.AmountSats, t.Memo, t.ObservedAt).Scan(&t.ID, &t.CreatedAt)
}

func (r *WalletRepo) ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, wallet_id, txid, direction, amount_sats, memo, observed_at, created_at
		FROM wallet_transactions WHERE wallet_id = $1
		ORDER BY observed_at DESC LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.WalletTransaction
	for rows.Next() {
		var t models.WalletTransaction
		if err := rows.Scan(&t.ID, &t.WalletID, &t.TxID, &t.Direction, &t.AmountSats, &t.Memo, &t.ObservedAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// RecomputeBalance derives the balance from the fact rows, ground truth for
// the cached balance_sats column.
func (r *WalletRepo) RecomputeBalance(ctx context.Context, walletID uuid.UUID) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(sum(CASE WHEN direction = 'outgoing' THEN -amount_sats ELSE amount_sats END), 0)
		FROM wallet_transactions WHERE wallet_id = $1
	`, walletID).Scan(&balance)
	return balance, err
}

func (r *WalletRepo) RepairBalance(ctx context.Context, walletID uuid.UUID, balance int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE wallets SET balance_sats = $1 WHERE id = $2`, balance, walletID)
	return err
}

func (r *WalletRepo) ListActiveIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM wallets WHERE is_active = true ORDER BY connected_at LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
