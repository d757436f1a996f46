package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orangecat-platform/backend/internal/models"
)

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

const projectColumns = `id, title, description, category, website, status, visibility,
	goal_sats, raised_sats, supporters_count, actor_id, owner_profile_id, created_at, updated_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.Website, &p.Status, &p.Visibility,
		&p.GoalSats, &p.RaisedSats, &p.SupportersCount, &p.ActorID, &p.OwnerProfileID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO projects (title, description, category, website, status, visibility, goal_sats, actor_id, owner_profile_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, raised_sats, supporters_count, created_at, updated_at
	`, p.Title, p.Description, p.Category, p.Website, p.Status, p.Visibility,
		p.GoalSats, p.ActorID, p.OwnerProfileID,
	).Scan(&p.ID, &p.RaisedSats, &p.SupportersCount, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

func (r *ProjectRepo) Update(ctx context.Context, p *models.Project) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE projects SET title = $1, description = $2, category = $3, website = $4,
			visibility = $5, goal_sats = $6, updated_at = now()
		WHERE id = $7
	`, p.Title, p.Description, p.Category, p.Website, p.Visibility, p.GoalSats, p.ID)
	return err
}

func (r *ProjectRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `UPDATE projects SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	return err
}

// SetActorID backfills the actor reference on legacy-owned rows.
func (r *ProjectRepo) SetActorID(ctx context.Context, id, actorID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE projects SET actor_id = $1 WHERE id = $2 AND actor_id IS NULL`, actorID, id)
	return err
}

type ProjectFilter struct {
	ActorID        *uuid.UUID
	OwnerProfileID *uuid.UUID
	Status         *string
	Visibility     *string
	Category       *string
	Query          *string
	Limit          int
	Offset         int
}

func (r *ProjectRepo) List(ctx context.Context, f ProjectFilter) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.ActorID != nil {
		where = append(where, fmt.Sprintf("actor_id = $%d", argIdx))
		args = append(args, *f.ActorID)
		argIdx++
	}
	if f.OwnerProfileID != nil {
		// Dual-path ownership: match either representation so legacy rows
		// stay listed during the backfill window.
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
	if f.Visibility != nil {
		where = append(where, fmt.Sprintf("visibility = $%d", argIdx))
		args = append(args, *f.Visibility)
		argIdx++
	}
	if f.Category != nil {
		where = append(where, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, *f.Category)
		argIdx++
	}
	if f.Query != nil {
		where = append(where, fmt.Sprintf("title ILIKE '%%' || $%d || '%%'", argIdx))
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
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// AddContribution inserts the fact row; the insert trigger maintains the
// cached raised_sats / supporters_count on the project.
func (r *ProjectRepo) AddContribution(ctx context.Context, c *models.Contribution) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO contributions (project_id, supporter_profile_id, amount_sats, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, c.ProjectID, c.SupporterProfileID, c.AmountSats, c.Message).Scan(&c.ID, &c.CreatedAt)
}

func (r *ProjectRepo) GetContribution(ctx context.Context, id uuid.UUID) (*models.Contribution, error) {
	var c models.Contribution
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, supporter_profile_id, amount_sats, message, created_at
		FROM contributions WHERE id = $1
	`, id).Scan(&c.ID, &c.ProjectID, &c.SupporterProfileID, &c.AmountSats, &c.Message, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ProjectRepo) ListContributions(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]models.Contribution, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, supporter_profile_id, amount_sats, message, created_at
		FROM contributions WHERE project_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contributions []models.Contribution
	for rows.Next() {
		var c models.Contribution
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.SupporterProfileID, &c.AmountSats, &c.Message, &c.CreatedAt); err != nil {
			return nil, err
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

// ProjectAggregates are the ground-truth values recomputed from fact rows.
type ProjectAggregates struct {
	RaisedSats      int64
	SupportersCount int
}

// RecomputeAggregates derives the cached counters from contributions. Used
// by the reconciliation job to detect and repair drift; the cache is a
// materialized view over this query, never a source of truth.
func (r *ProjectRepo) RecomputeAggregates(ctx context.Context, projectID uuid.UUID) (*ProjectAggregates, error) {
	var a ProjectAggregates
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(sum(amount_sats), 0), count(DISTINCT supporter_profile_id)
		FROM contributions WHERE project_id = $1
	`, projectID).Scan(&a.RaisedSats, &a.SupportersCount)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ProjectRepo) RepairAggregates(ctx context.Context, projectID uuid.UUID, a ProjectAggregates) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE projects SET raised_sats = $1, supporters_count = $2 WHERE id = $3
	`, a.RaisedSats, a.SupportersCount, projectID)
	return err
}

func (r *ProjectRepo) ListIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.pool.Query(ctx, `SELECT id FROM projects ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
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
