package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orangecat-platform/backend/internal/models"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

// CreateConversation inserts the conversation and its initial participants
// atomically.
func (r *MessageRepo) CreateConversation(ctx context.Context, c *models.Conversation, participantIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO conversations (kind, group_id, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, c.Kind, c.GroupID, c.CreatedBy).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return err
	}

	for _, pid := range participantIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO conversation_participants (conversation_id, profile_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, c.ID, pid); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *MessageRepo) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var c models.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id, kind, group_id, created_by, created_at FROM conversations WHERE id = $1
	`, id).Scan(&c.ID, &c.Kind, &c.GroupID, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *MessageRepo) IsParticipant(ctx context.Context, conversationID, profileID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND profile_id = $2)
	`, conversationID, profileID).Scan(&exists)
	return exists, err
}

func (r *MessageRepo) ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT profile_id FROM conversation_participants WHERE conversation_id = $1
	`, conversationID)
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

func (r *MessageRepo) ListConversations(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]models.Conversation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.kind, c.group_id, c.created_by, c.created_at
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE p.profile_id = $1
		ORDER BY c.created_at DESC LIMIT $2 OFFSET $3
	`, profileID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []models.Conversation
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.Kind, &c.GroupID, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (r *MessageRepo) AddMessage(ctx context.Context, m *models.Message) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_profile_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, m.ConversationID, m.SenderProfileID, m.Body).Scan(&m.ID, &m.CreatedAt)
}

func (r *MessageRepo) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, sender_profile_id, body, edited, created_at, deleted_at
		FROM messages
		WHERE conversation_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderProfileID, &m.Body, &m.Edited, &m.CreatedAt, &m.DeletedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *MessageRepo) EditMessage(ctx context.Context, id, senderProfileID uuid.UUID, body string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE messages SET body = $1, edited = true
		WHERE id = $2 AND sender_profile_id = $3 AND deleted_at IS NULL
	`, body, id, senderProfileID)
	return err
}

func (r *MessageRepo) SoftDeleteMessage(ctx context.Context, id, senderProfileID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE messages SET deleted_at = now()
		WHERE id = $1 AND sender_profile_id = $2 AND deleted_at IS NULL
	`, id, senderProfileID)
	return err
}

func (r *MessageRepo) MarkRead(ctx context.Context, conversationID, profileID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE conversation_participants SET last_read_at = now()
		WHERE conversation_id = $1 AND profile_id = $2
	`, conversationID, profileID)
	return err
}
