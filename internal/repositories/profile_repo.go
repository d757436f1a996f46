package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orangecat-platform/backend/internal/models"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

const profileColumns = `id, email, password_hash, username, name, bio, avatar_url, website, actor_id, created_at, updated_at, last_active_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.Username, &p.Name, &p.Bio,
		&p.AvatarURL, &p.Website, &p.ActorID, &p.CreatedAt, &p.UpdatedAt, &p.LastActiveAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepo) Create(ctx context.Context, p *models.Profile) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO profiles (email, password_hash, username, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at, last_active_at
	`, p.Email, p.PasswordHash, p.Username, p.Name).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.LastActiveAt)
}

func (r *ProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
}

func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1)`, email))
}

func (r *ProfileRepo) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE username = $1`, username))
}

func (r *ProfileRepo) Update(ctx context.Context, p *models.Profile) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE profiles SET name = $1, bio = $2, avatar_url = $3, website = $4, updated_at = now()
		WHERE id = $5
	`, p.Name, p.Bio, p.AvatarURL, p.Website, p.ID)
	return err
}

// SetActorID records the backfilled actor reference on the profile row.
func (r *ProfileRepo) SetActorID(ctx context.Context, profileID, actorID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE profiles SET actor_id = $1 WHERE id = $2 AND actor_id IS NULL`, actorID, profileID)
	return err
}

func (r *ProfileRepo) UpdateLastActive(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE profiles SET last_active_at = now() WHERE id = $1`, id)
	return err
}

// ListWithoutActor feeds the actor backfill job.
func (r *ProfileRepo) ListWithoutActor(ctx context.Context, limit int) ([]models.Profile, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE actor_id IS NULL LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}
