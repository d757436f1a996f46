package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/auth"
	"github.com/orangecat-platform/backend/internal/config"
	"github.com/orangecat-platform/backend/internal/events"
	"github.com/orangecat-platform/backend/internal/services"
)

// WSHub relays conversation change events to connected participants. One
// Redis subscription feeds every socket; each socket is registered under the
// single conversation it watched when it connected.
type WSHub struct {
	cfg            *config.Config
	subscriber     events.Subscriber
	messageService *services.MessageService
	log            *zap.Logger
	mu             sync.RWMutex
	conversations  map[uuid.UUID][]*websocket.Conn
}

func NewWSHub(cfg *config.Config, subscriber events.Subscriber, messageService *services.MessageService, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:            cfg,
		subscriber:     subscriber,
		messageService: messageService,
		log:            log,
		conversations:  make(map[uuid.UUID][]*websocket.Conn),
	}
}

func (h *WSHub) Start(ctx context.Context) {
	_ = h.subscriber.Subscribe(ctx, events.StreamMessages, func(event events.Event) {
		h.relay(event)
	})
}

// relay fans one message event out to the sockets watching its conversation.
func (h *WSHub) relay(event events.Event) {
	conversationID, ok := eventConversationID(event)
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.conversations[conversationID] {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

// eventConversationID pulls the conversation a message event belongs to out
// of its payload.
func eventConversationID(event events.Event) (uuid.UUID, bool) {
	idStr, _ := event.Payload["conversation_id"].(string)
	id, err := uuid.Parse(idStr)
	return id, err == nil
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing token"}`))
		conn.Close()
		return
	}

	claims, err := auth.ParseJWT(h.cfg.JWTSecret, tokenStr)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
		conn.Close()
		return
	}

	conversationID, err := uuid.Parse(conn.Params("id"))
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid conversation id"}`))
		conn.Close()
		return
	}

	ok, err := h.messageService.IsParticipant(context.Background(), conversationID, claims.ProfileID)
	if err != nil || !ok {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"not a participant"}`))
		conn.Close()
		return
	}

	h.mu.Lock()
	h.conversations[conversationID] = append(h.conversations[conversationID], conn)
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		conns := h.conversations[conversationID]
		for i, c := range conns {
			if c == conn {
				h.conversations[conversationID] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(h.conversations[conversationID]) == 0 {
			delete(h.conversations, conversationID)
		}
		h.mu.Unlock()
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
