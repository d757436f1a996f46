package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orangecat-platform/backend/internal/models"
)

type GroupRepo struct {
	pool *pgxpool.Pool
}

func NewGroupRepo(pool *pgxpool.Pool) *GroupRepo {
	return &GroupRepo{pool: pool}
}

const groupColumns = `id, name, slug, description, avatar_url, visibility, actor_id, member_count, created_by, created_at, updated_at`

func scanGroup(row pgx.Row) (*models.Group, error) {
	var g models.Group
	err := row.Scan(&g.ID, &g.Name, &g.Slug, &g.Description, &g.AvatarURL, &g.Visibility,
		&g.ActorID, &g.MemberCount, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Begin exposes a transaction for multi-row group creation (group + actor +
// owner membership committed atomically).
func (r *GroupRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *GroupRepo) CreateTx(ctx context.Context, tx pgx.Tx, g *models.Group) error {
	return tx.QueryRow(ctx, `
		INSERT INTO groups (name, slug, description, avatar_url, visibility, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, member_count, created_at, updated_at
	`, g.Name, g.Slug, g.Description, g.AvatarURL, g.Visibility, g.CreatedBy).
		Scan(&g.ID, &g.MemberCount, &g.CreatedAt, &g.UpdatedAt)
}

func (r *GroupRepo) SetActorIDTx(ctx context.Context, tx pgx.Tx, groupID, actorID uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE groups SET actor_id = $1 WHERE id = $2`, actorID, groupID)
	return err
}

func (r *GroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	return scanGroup(r.pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id))
}

func (r *GroupRepo) Update(ctx context.Context, g *models.Group) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE groups SET name = $1, description = $2, avatar_url = $3, visibility = $4, updated_at = now()
		WHERE id = $5
	`, g.Name, g.Description, g.AvatarURL, g.Visibility, g.ID)
	return err
}

type GroupFilter struct {
	Visibility *string
	MemberID   *uuid.UUID
	Query      *string
	Limit      int
	Offset     int
}

func (r *GroupRepo) List(ctx context.Context, f GroupFilter) ([]models.Group, error) {
	query := `SELECT ` + qualify(groupColumns, "g") + ` FROM groups g`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.MemberID != nil {
		query += ` JOIN group_memberships m ON m.group_id = g.id AND m.status = 'active'`
		where = append(where, fmt.Sprintf("m.profile_id = $%d", argIdx))
		args = append(args, *f.MemberID)
		argIdx++
	}
	if f.Visibility != nil {
		where = append(where, fmt.Sprintf("g.visibility = $%d", argIdx))
		args = append(args, *f.Visibility)
		argIdx++
	}
	if f.Query != nil {
		where = append(where, fmt.Sprintf("g.name ILIKE '%%' || $%d || '%%'", argIdx))
		args = append(args, *f.Query)
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
	query += fmt.Sprintf(" ORDER BY g.created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

const membershipColumns = `id, group_id, profile_id, role, status,
	can_manage_projects, can_manage_wallets, can_manage_members, can_post_timeline,
	joined_at, updated_at`

func scanMembership(row pgx.Row) (*models.GroupMembership, error) {
	var m models.GroupMembership
	err := row.Scan(&m.ID, &m.GroupID, &m.ProfileID, &m.Role, &m.Status,
		&m.CanManageProjects, &m.CanManageWallets, &m.CanManageMembers, &m.CanPostTimeline,
		&m.JoinedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MembershipFor is the privilege-bypassing membership lookup used by every
// policy check. It is a single-row SELECT and must stay that way: routing
// it through any policy-evaluating path would reintroduce the recursive
// policy cycle this design exists to prevent.
func (r *GroupRepo) MembershipFor(ctx context.Context, groupID, profileID uuid.UUID) (*models.GroupMembership, error) {
	m, err := scanMembership(r.pool.QueryRow(ctx, `
		SELECT `+membershipColumns+` FROM group_memberships
		WHERE group_id = $1 AND profile_id = $2
	`, groupID, profileID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *GroupRepo) AddMember(ctx context.Context, m *models.GroupMembership) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO group_memberships (group_id, profile_id, role, status,
			can_manage_projects, can_manage_wallets, can_manage_members, can_post_timeline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (group_id, profile_id) DO UPDATE SET
			role = EXCLUDED.role,
			status = EXCLUDED.status,
			can_manage_projects = EXCLUDED.can_manage_projects,
			can_manage_wallets = EXCLUDED.can_manage_wallets,
			can_manage_members = EXCLUDED.can_manage_members,
			can_post_timeline = EXCLUDED.can_post_timeline,
			updated_at = now()
		RETURNING id, joined_at, updated_at
	`, m.GroupID, m.ProfileID, m.Role, m.Status,
		m.CanManageProjects, m.CanManageWallets, m.CanManageMembers, m.CanPostTimeline,
	).Scan(&m.ID, &m.JoinedAt, &m.UpdatedAt)
}

func (r *GroupRepo) AddMemberTx(ctx context.Context, tx pgx.Tx, m *models.GroupMembership) error {
	return tx.QueryRow(ctx, `
		INSERT INTO group_memberships (group_id, profile_id, role, status,
			can_manage_projects, can_manage_wallets, can_manage_members, can_post_timeline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, joined_at, updated_at
	`, m.GroupID, m.ProfileID, m.Role, m.Status,
		m.CanManageProjects, m.CanManageWallets, m.CanManageMembers, m.CanPostTimeline,
	).Scan(&m.ID, &m.JoinedAt, &m.UpdatedAt)
}

func (r *GroupRepo) UpdateMember(ctx context.Context, m *models.GroupMembership) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE group_memberships SET role = $1, status = $2,
			can_manage_projects = $3, can_manage_wallets = $4,
			can_manage_members = $5, can_post_timeline = $6,
			updated_at = now()
		WHERE group_id = $7 AND profile_id = $8
	`, m.Role, m.Status,
		m.CanManageProjects, m.CanManageWallets, m.CanManageMembers, m.CanPostTimeline,
		m.GroupID, m.ProfileID)
	return err
}

func (r *GroupRepo) SetMemberStatus(ctx context.Context, groupID, profileID uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE group_memberships SET status = $1, updated_at = now()
		WHERE group_id = $2 AND profile_id = $3
	`, status, groupID, profileID)
	return err
}

func (r *GroupRepo) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMembership, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+membershipColumns+` FROM group_memberships
		WHERE group_id = $1 AND status != 'removed'
		ORDER BY joined_at
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.GroupMembership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (r *GroupRepo) CountActiveMembers(ctx context.Context, groupID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM group_memberships WHERE group_id = $1 AND status = 'active'
	`, groupID).Scan(&n)
	return n, err
}

// qualify prefixes each column in a comma-separated list with an alias.
func qualify(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
