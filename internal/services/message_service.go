package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/events"
	"github.com/orangecat-platform/backend/internal/models"
	"github.com/orangecat-platform/backend/internal/repositories"
)

type MessageService struct {
	messageRepo *repositories.MessageRepo
	groupRepo   *repositories.GroupRepo
	profileRepo *repositories.ProfileRepo
	publisher   events.Publisher
	log         *zap.Logger
}

func NewMessageService(
	messageRepo *repositories.MessageRepo,
	groupRepo *repositories.GroupRepo,
	profileRepo *repositories.ProfileRepo,
	publisher events.Publisher,
	log *zap.Logger,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		groupRepo:   groupRepo,
		profileRepo: profileRepo,
		publisher:   publisher,
		log:         log,
	}
}

// StartDirect opens a direct conversation between the creator and another
// profile.
func (s *MessageService) StartDirect(ctx context.Context, creatorID, otherID uuid.UUID) (*models.Conversation, error) {
	if creatorID == otherID {
		return nil, fmt.Errorf("cannot start a conversation with yourself")
	}
	if _, err := s.profileRepo.GetByID(ctx, otherID); err != nil {
		return nil, fmt.Errorf("recipient not found")
	}

	c := &models.Conversation{
		Kind:      models.ConversationDirect,
		CreatedBy: creatorID,
	}
	if err := s.messageRepo.CreateConversation(ctx, c, []uuid.UUID{creatorID, otherID}); err != nil {
		return nil, err
	}
	return c, nil
}

// StartGroupConversation opens a conversation linked to a group. Only active
// members may open it, and only active members are seeded as participants.
func (s *MessageService) StartGroupConversation(ctx context.Context, creatorID, groupID uuid.UUID) (*models.Conversation, error) {
	m, err := s.groupRepo.MembershipFor(ctx, groupID, creatorID)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsActive() {
		return nil, fmt.Errorf("only active members can start a group conversation")
	}

	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	participants := make([]uuid.UUID, 0, len(members))
	for i := range members {
		if members[i].IsActive() {
			participants = append(participants, members[i].ProfileID)
		}
	}

	c := &models.Conversation{
		Kind:      models.ConversationGroup,
		GroupID:   &groupID,
		CreatedBy: creatorID,
	}
	if err := s.messageRepo.CreateConversation(ctx, c, participants); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *MessageService) ListConversations(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]models.Conversation, error) {
	return s.messageRepo.ListConversations(ctx, profileID, limit, offset)
}

// Send appends a message and publishes the change event every connected
// participant's websocket relays on.
func (s *MessageService) Send(ctx context.Context, conversationID, senderID uuid.UUID, body string) (*models.Message, error) {
	if body == "" {
		return nil, fmt.Errorf("message body is empty")
	}
	if err := s.requireParticipant(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	m := &models.Message{
		ConversationID:  conversationID,
		SenderProfileID: senderID,
		Body:            body,
	}
	if err := s.messageRepo.AddMessage(ctx, m); err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, events.StreamMessages, events.Event{
		Type: events.EventMessageSent,
		Payload: map[string]any{
			"conversation_id": conversationID.String(),
			"message_id":      m.ID.String(),
			"sender_id":       senderID.String(),
		},
	})

	return m, nil
}

func (s *MessageService) ListMessages(ctx context.Context, conversationID, requesterID uuid.UUID, limit, offset int) ([]models.Message, error) {
	if err := s.requireParticipant(ctx, conversationID, requesterID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListMessages(ctx, conversationID, limit, offset)
}

// Edit replaces the body of the sender's own message.
func (s *MessageService) Edit(ctx context.Context, messageID, senderID uuid.UUID, conversationID uuid.UUID, body string) error {
	if body == "" {
		return fmt.Errorf("message body is empty")
	}
	if err := s.messageRepo.EditMessage(ctx, messageID, senderID, body); err != nil {
		return err
	}

	_ = s.publisher.Publish(ctx, events.StreamMessages, events.Event{
		Type: events.EventMessageEdited,
		Payload: map[string]any{
			"conversation_id": conversationID.String(),
			"message_id":      messageID.String(),
		},
	})
	return nil
}

// Delete soft-deletes the sender's own message.
func (s *MessageService) Delete(ctx context.Context, messageID, senderID uuid.UUID, conversationID uuid.UUID) error {
	if err := s.messageRepo.SoftDeleteMessage(ctx, messageID, senderID); err != nil {
		return err
	}

	_ = s.publisher.Publish(ctx, events.StreamMessages, events.Event{
		Type: events.EventMessageDeleted,
		Payload: map[string]any{
			"conversation_id": conversationID.String(),
			"message_id":      messageID.String(),
		},
	})
	return nil
}

func (s *MessageService) MarkRead(ctx context.Context, conversationID, profileID uuid.UUID) error {
	if err := s.requireParticipant(ctx, conversationID, profileID); err != nil {
		return err
	}
	return s.messageRepo.MarkRead(ctx, conversationID, profileID)
}

// IsParticipant is used by the websocket relay to authorize subscriptions.
func (s *MessageService) IsParticipant(ctx context.Context, conversationID, profileID uuid.UUID) (bool, error) {
	return s.messageRepo.IsParticipant(ctx, conversationID, profileID)
}

func (s *MessageService) requireParticipant(ctx context.Context, conversationID, profileID uuid.UUID) error {
	ok, err := s.messageRepo.IsParticipant(ctx, conversationID, profileID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("not a participant of this conversation")
	}
	return nil
}
