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

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

const eventColumns = `id, title, description, location, visibility, starts_at, ends_at,
	capacity, attendee_count, actor_id, owner_profile_id, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.Visibility, &e.StartsAt, &e.EndsAt,
		&e.Capacity, &e.AttendeeCount, &e.ActorID, &e.OwnerProfileID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EventRepo) Create(ctx context.Context, e *models.Event) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO events (title, description, location, visibility, starts_at, ends_at, capacity, actor_id, owner_profile_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, attendee_count, created_at, updated_at
	`, e.Title, e.Description, e.Location, e.Visibility, e.StartsAt, e.EndsAt, e.Capacity, e.ActorID, e.OwnerProfileID).
		Scan(&e.ID, &e.AttendeeCount, &e.CreatedAt, &e.UpdatedAt)
}

func (r *EventRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

func (r *EventRepo) Update(ctx context.Context, e *models.Event) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE events SET title = $1, description = $2, location = $3, visibility = $4,
			starts_at = $5, ends_at = $6, capacity = $7, updated_at = now()
		WHERE id = $8
	`, e.Title, e.Description, e.Location, e.Visibility, e.StartsAt, e.EndsAt, e.Capacity, e.ID)
	return err
}

type EventFilter struct {
	OwnerProfileID *uuid.UUID
	ActorID        *uuid.UUID
	Visibility     *string
	After          *time.Time
	Limit          int
	Offset         int
}

func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
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
	if f.Visibility != nil {
		where = append(where, fmt.Sprintf("visibility = $%d", argIdx))
		args = append(args, *f.Visibility)
		argIdx++
	}
	if f.After != nil {
		where = append(where, fmt.Sprintf("starts_at > $%d", argIdx))
		args = append(args, *f.After)
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
	query += fmt.Sprintf(" ORDER BY starts_at LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// UpsertRSVP inserts or updates the caller's RSVP; the trigger keeps
// attendee_count in sync with the "going" rows.
func (r *EventRepo) UpsertRSVP(ctx context.Context, rsvp *models.EventRSVP) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO event_rsvps (event_id, profile_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, profile_id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = now()
		RETURNING id, created_at, updated_at
	`, rsvp.EventID, rsvp.ProfileID, rsvp.Status).Scan(&rsvp.ID, &rsvp.CreatedAt, &rsvp.UpdatedAt)
}

// RecomputeAttendees derives the attendee count from RSVP fact rows.
func (r *EventRepo) RecomputeAttendees(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM event_rsvps WHERE event_id = $1 AND status = 'going'
	`, eventID).Scan(&n)
	return n, err
}

func (r *EventRepo) RepairAttendees(ctx context.Context, eventID uuid.UUID, n int) error {
	_, err := r.pool.Exec(ctx, `UPDATE events SET attendee_count = $1 WHERE id = $2`, n, eventID)
	return err
}

func (r *EventRepo) ListIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.pool.Query(ctx, `SELECT id FROM events ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
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
