package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orangecat-platform/backend/internal/models"
)

type TimelineRepo struct {
	pool *pgxpool.Pool
}

func NewTimelineRepo(pool *pgxpool.Pool) *TimelineRepo {
	return &TimelineRepo{pool: pool}
}

// InsertEvent writes the event and its denormalized feed projection in one
// transaction, so the feed can never show an event that was rolled back or
// miss one that committed.
func (r *TimelineRepo) InsertEvent(ctx context.Context, e *models.TimelineEvent, item *models.FeedItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var targetKind *string
	var targetID *uuid.UUID
	if e.Target != nil {
		targetKind = &e.Target.Kind
		targetID = &e.Target.ID
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO timeline_events (actor_id, event_type, subject_kind, subject_id,
			target_kind, target_id, visibility, content, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, e.ActorID, e.EventType, e.Subject.Kind, e.Subject.ID,
		targetKind, targetID, e.Visibility, e.Content, e.Metadata, e.OccurredAt,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return err
	}

	item.EventID = e.ID
	item.CreatedAt = e.CreatedAt
	_, err = tx.Exec(ctx, `
		INSERT INTO feed_items (event_id, actor_id, actor_name, actor_avatar_url, event_type,
			subject_kind, subject_id, subject_title, target_kind, target_id, target_title,
			visibility, content, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, item.EventID, item.ActorID, item.ActorName, item.ActorAvatarURL, item.EventType,
		item.SubjectKind, item.SubjectID, item.SubjectTitle, item.TargetKind, item.TargetID, item.TargetTitle,
		item.Visibility, item.Content, item.OccurredAt, item.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *TimelineRepo) GetEvent(ctx context.Context, id uuid.UUID) (*models.TimelineEvent, error) {
	var e models.TimelineEvent
	var targetKind *string
	var targetID *uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT id, actor_id, event_type, subject_kind, subject_id, target_kind, target_id,
		       visibility, content, metadata, occurred_at, created_at, deleted_at
		FROM timeline_events WHERE id = $1
	`, id).Scan(&e.ID, &e.ActorID, &e.EventType, &e.Subject.Kind, &e.Subject.ID,
		&targetKind, &targetID, &e.Visibility, &e.Content, &e.Metadata,
		&e.OccurredAt, &e.CreatedAt, &e.DeletedAt)
	if err != nil {
		return nil, err
	}
	if targetKind != nil && targetID != nil {
		e.Target = &models.EntityRef{Kind: *targetKind, ID: *targetID}
	}
	return &e, nil
}

// SoftDeleteEvent marks the event deleted and drops its projection row. The
// event row is retained.
func (r *TimelineRepo) SoftDeleteEvent(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE timeline_events SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
	`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM feed_items WHERE event_id = $1`, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

const feedColumns = `event_id, actor_id, actor_name, actor_avatar_url, event_type,
	subject_kind, subject_id, subject_title, target_kind, target_id, target_title,
	visibility, content, preview_url, preview_title, preview_image_url,
	likes_count, comments_count, occurred_at, created_at`

func scanFeedItem(row pgx.Row) (*models.FeedItem, error) {
	var it models.FeedItem
	err := row.Scan(&it.EventID, &it.ActorID, &it.ActorName, &it.ActorAvatarURL, &it.EventType,
		&it.SubjectKind, &it.SubjectID, &it.SubjectTitle, &it.TargetKind, &it.TargetID, &it.TargetTitle,
		&it.Visibility, &it.Content, &it.PreviewURL, &it.PreviewTitle, &it.PreviewImageURL,
		&it.LikesCount, &it.CommentsCount, &it.OccurredAt, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

type FeedFilter struct {
	Subject      *models.EntityRef
	ActorID      *uuid.UUID
	Visibilities []string
	Limit        int
	Offset       int
}

// Feed reads the projection only: no joins at render time. Newest first by
// occurred_at, ties broken by created_at.
func (r *TimelineRepo) Feed(ctx context.Context, f FeedFilter) ([]models.FeedItem, error) {
	query := `SELECT ` + feedColumns + ` FROM feed_items`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.Subject != nil {
		where = append(where, fmt.Sprintf("subject_kind = $%d AND subject_id = $%d", argIdx, argIdx+1))
		args = append(args, f.Subject.Kind, f.Subject.ID)
		argIdx += 2
	}
	if f.ActorID != nil {
		where = append(where, fmt.Sprintf("actor_id = $%d", argIdx))
		args = append(args, *f.ActorID)
		argIdx++
	}
	if len(f.Visibilities) > 0 {
		where = append(where, fmt.Sprintf("visibility = ANY($%d)", argIdx))
		args = append(args, f.Visibilities)
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
	query += fmt.Sprintf(" ORDER BY occurred_at DESC, created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.FeedItem
	for rows.Next() {
		it, err := scanFeedItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// MarkPreviewFailed counts a failed fetch against the projection row.
func (r *TimelineRepo) MarkPreviewFailed(ctx context.Context, eventID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE feed_items SET preview_attempts = preview_attempts + 1 WHERE event_id = $1
	`, eventID)
	return err
}

// AttachPreview stores fetched link-preview metadata on the projection row.
func (r *TimelineRepo) AttachPreview(ctx context.Context, eventID uuid.UUID, url, title string, imageURL *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE feed_items SET preview_url = $1, preview_title = $2, preview_image_url = $3
		WHERE event_id = $4
	`, url, title, imageURL, eventID)
	return err
}

// PendingPreview is a feed item whose content carries a URL but no preview
// yet.
type PendingPreview struct {
	EventID uuid.UUID
	Content string
}

// Rows past this many failed fetches are retired from the pending set.
const maxPreviewAttempts = 5

func (r *TimelineRepo) ListPendingPreviews(ctx context.Context, limit int) ([]PendingPreview, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT event_id, content FROM feed_items
		WHERE preview_url IS NULL AND content IS NOT NULL AND content ~ 'https?://'
		  AND preview_attempts < $2
		ORDER BY created_at DESC LIMIT $1
	`, limit, maxPreviewAttempts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []PendingPreview
	for rows.Next() {
		var p PendingPreview
		if err := rows.Scan(&p.EventID, &p.Content); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}
