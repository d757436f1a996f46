package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orangecat-platform/backend/internal/models"
)

type ActorRepo struct {
	pool *pgxpool.Pool
}

func NewActorRepo(pool *pgxpool.Pool) *ActorRepo {
	return &ActorRepo{pool: pool}
}

const actorColumns = `id, kind, profile_id, group_id, name, avatar_url, slug, created_at, updated_at`

func scanActor(row pgx.Row) (*models.Actor, error) {
	var a models.Actor
	err := row.Scan(&a.ID, &a.Kind, &a.ProfileID, &a.GroupID, &a.Name, &a.AvatarURL, &a.Slug, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ActorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Actor, error) {
	return scanActor(r.pool.QueryRow(ctx, `SELECT `+actorColumns+` FROM actors WHERE id = $1`, id))
}

func (r *ActorRepo) GetBySlug(ctx context.Context, slug string) (*models.Actor, error) {
	return scanActor(r.pool.QueryRow(ctx, `SELECT `+actorColumns+` FROM actors WHERE slug = $1`, slug))
}

func (r *ActorRepo) GetByProfileID(ctx context.Context, profileID uuid.UUID) (*models.Actor, error) {
	return scanActor(r.pool.QueryRow(ctx, `SELECT `+actorColumns+` FROM actors WHERE profile_id = $1`, profileID))
}

func (r *ActorRepo) GetByGroupID(ctx context.Context, groupID uuid.UUID) (*models.Actor, error) {
	return scanActor(r.pool.QueryRow(ctx, `SELECT `+actorColumns+` FROM actors WHERE group_id = $1`, groupID))
}

// EnsureForProfile lazily creates the user actor for a profile, refreshing
// the cached name/avatar on conflict. Safe to call on every login; this is
// also the per-row backfill for profiles created before actors existed.
func (r *ActorRepo) EnsureForProfile(ctx context.Context, profileID uuid.UUID, name string, avatarURL *string) (*models.Actor, error) {
	return scanActor(r.pool.QueryRow(ctx, `
		INSERT INTO actors (kind, profile_id, name, avatar_url)
		VALUES ('user', $1, $2, $3)
		ON CONFLICT (profile_id) WHERE profile_id IS NOT NULL DO UPDATE SET
			name = EXCLUDED.name,
			avatar_url = COALESCE(EXCLUDED.avatar_url, actors.avatar_url),
			updated_at = now()
		RETURNING `+actorColumns, profileID, name, avatarURL))
}

// CreateForGroup inserts the group actor inside the caller's transaction so
// group and actor appear atomically.
func (r *ActorRepo) CreateForGroup(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, name string, avatarURL *string) (*models.Actor, error) {
	return scanActor(tx.QueryRow(ctx, `
		INSERT INTO actors (kind, group_id, name, avatar_url)
		VALUES ('group', $1, $2, $3)
		RETURNING `+actorColumns, groupID, name, avatarURL))
}

// RefreshCachedIdentity re-copies name/avatar from the underlying profile or
// group after a rename.
func (r *ActorRepo) RefreshCachedIdentity(ctx context.Context, actorID uuid.UUID, name string, avatarURL *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE actors SET name = $1, avatar_url = $2, updated_at = now() WHERE id = $3
	`, name, avatarURL, actorID)
	return err
}

func (r *ActorRepo) SetSlug(ctx context.Context, actorID uuid.UUID, slug string) error {
	_, err := r.pool.Exec(ctx, `UPDATE actors SET slug = $1, updated_at = now() WHERE id = $2`, slug, actorID)
	return err
}

// RefExists verifies a polymorphic reference against the backing table of
// its registered kind. The table name comes from the dispatch table, never
// from caller input.
func (r *ActorRepo) RefExists(ctx context.Context, ref models.EntityRef) (bool, error) {
	table, ok := models.TableForKind(ref.Kind)
	if !ok {
		return false, fmt.Errorf("unknown entity kind %q", ref.Kind)
	}

	var exists bool
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, table), ref.ID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
