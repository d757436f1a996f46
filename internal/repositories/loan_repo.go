package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orangecat-platform/backend/internal/models"
)

type LoanRepo struct {
	pool *pgxpool.Pool
}

func NewLoanRepo(pool *pgxpool.Pool) *LoanRepo {
	return &LoanRepo{pool: pool}
}

const loanColumns = `id, purpose, status, visibility, principal_sats, outstanding_sats,
	lender_actor_id, due_at, actor_id, owner_profile_id, created_at, updated_at`

func scanLoan(row pgx.Row) (*models.Loan, error) {
	var l models.Loan
	err := row.Scan(&l.ID, &l.Purpose, &l.Status, &l.Visibility, &l.PrincipalSats, &l.OutstandingSats,
		&l.LenderActorID, &l.DueAt, &l.ActorID, &l.OwnerProfileID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepo) Create(ctx context.Context, l *models.Loan) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO loans (purpose, status, visibility, principal_sats, outstanding_sats, due_at, actor_id, owner_profile_id)
		VALUES ($1, $2, $3, $4, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, l.Purpose, l.Status, l.Visibility, l.PrincipalSats, l.DueAt, l.ActorID, l.OwnerProfileID).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

func (r *LoanRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	return scanLoan(r.pool.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id))
}

func (r *LoanRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `UPDATE loans SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	return err
}

// MarkFunded records the lender and the funded status in one statement, so a
// funded loan can never exist without its lender. The status guard loses
// cleanly to a concurrent transition.
func (r *LoanRepo) MarkFunded(ctx context.Context, id, lenderActorID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE loans SET status = $1, lender_actor_id = $2, updated_at = now()
		WHERE id = $3 AND status = $4
	`, models.LoanStatusFunded, lenderActorID, id, models.LoanStatusApproved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("loan is not awaiting funding")
	}
	return nil
}

// AddRepayment records the fact row and decrements the cached outstanding
// balance atomically.
func (r *LoanRepo) AddRepayment(ctx context.Context, rep *models.LoanRepayment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO loan_repayments (loan_id, amount_sats, txid)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, rep.LoanID, rep.AmountSats, rep.TxID).Scan(&rep.ID, &rep.CreatedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE loans SET outstanding_sats = GREATEST(outstanding_sats - $1, 0), updated_at = now()
		WHERE id = $2
	`, rep.AmountSats, rep.LoanID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RecomputeOutstanding derives the outstanding balance from principal and
// repayment fact rows.
func (r *LoanRepo) RecomputeOutstanding(ctx context.Context, loanID uuid.UUID) (int64, error) {
	var outstanding int64
	err := r.pool.QueryRow(ctx, `
		SELECT GREATEST(l.principal_sats - COALESCE(sum(rep.amount_sats), 0), 0)
		FROM loans l
		LEFT JOIN loan_repayments rep ON rep.loan_id = l.id
		WHERE l.id = $1
		GROUP BY l.principal_sats
	`, loanID).Scan(&outstanding)
	return outstanding, err
}

func (r *LoanRepo) RepairOutstanding(ctx context.Context, loanID uuid.UUID, outstanding int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE loans SET outstanding_sats = $1 WHERE id = $2`, outstanding, loanID)
	return err
}

type LoanFilter struct {
	OwnerProfileID *uuid.UUID
	ActorID        *uuid.UUID
	Status         *string
	Limit          int
	Offset         int
}

func (r *LoanRepo) List(ctx context.Context, f LoanFilter) ([]models.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.ActorID != nil {
		where = append(where, fmt.Sprintf("actor_id = $%d", argIdx))
		args = append(args, *f.ActorID)
		argIdx++
	}
	if f.OwnerProfileID != nil {
		where = append(where, fmt.Sprintf(
			"(owner_profile_id = $%d OR actor_id IN (SELECT id FROM actors WHERE profile_id = $%d))", argIdx, argIdx))
		args = append(args, *f.OwnerProfileID)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []models.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *l)
	}
	return loans, rows.Err()
}

func (r *LoanRepo) ListOpenIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM loans WHERE status IN ('funded', 'repaying')
		ORDER BY created_at LIMIT $1 OFFSET $2
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

// ListDueBefore returns loans still being repaid whose due date has passed.
func (r *LoanRepo) ListDueBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Loan, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+loanColumns+` FROM loans
		WHERE status IN ('funded', 'repaying') AND due_at IS NOT NULL AND due_at < $1
		ORDER BY due_at LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []models.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *l)
	}
	return loans, rows.Err()
}
