package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orangecat-platform/backend/internal/models"
)

type AssistantRepo struct {
	pool *pgxpool.Pool
}

func NewAssistantRepo(pool *pgxpool.Pool) *AssistantRepo {
	return &AssistantRepo{pool: pool}
}

// Get returns the profile's assistant preferences, or defaults when the
// singleton row does not exist yet.
func (r *AssistantRepo) Get(ctx context.Context, profileID uuid.UUID) (*models.AssistantPrefs, error) {
	var p models.AssistantPrefs
	err := r.pool.QueryRow(ctx, `
		SELECT profile_id, enabled, model, tone, share_projects, share_wallet_balances, custom_instructions, updated_at
		FROM assistant_prefs WHERE profile_id = $1
	`, profileID).Scan(&p.ProfileID, &p.Enabled, &p.Model, &p.Tone,
		&p.ShareProjects, &p.ShareWalletBalances, &p.CustomInstructions, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.AssistantPrefs{ProfileID: profileID, Model: "default", Tone: "neutral"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *AssistantRepo) Upsert(ctx context.Context, p *models.AssistantPrefs) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO assistant_prefs (profile_id, enabled, model, tone, share_projects, share_wallet_balances, custom_instructions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (profile_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			model = EXCLUDED.model,
			tone = EXCLUDED.tone,
			share_projects = EXCLUDED.share_projects,
			share_wallet_balances = EXCLUDED.share_wallet_balances,
			custom_instructions = EXCLUDED.custom_instructions,
			updated_at = now()
		RETURNING updated_at
	`, p.ProfileID, p.Enabled, p.Model, p.Tone, p.ShareProjects, p.ShareWalletBalances, p.CustomInstructions).
		Scan(&p.UpdatedAt)
}
