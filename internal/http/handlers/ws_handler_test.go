package handlers

import (
	"testing"

	"github.com/google/uuid"

	"github.com/orangecat-platform/backend/internal/events"
)

func TestEventConversationID(t *testing.T) {
	id := uuid.New()

	got, ok := eventConversationID(events.Event{
		Type:    events.EventMessageSent,
		Payload: map[string]any{"conversation_id": id.String(), "message_id": uuid.New().String()},
	})
	if !ok || got != id {
		t.Fatalf("eventConversationID = %v, %v; want %v, true", got, ok, id)
	}

	bad := []events.Event{
		{Type: events.EventMessageSent, Payload: map[string]any{}},
		{Type: events.EventMessageSent, Payload: nil},
		{Type: events.EventMessageSent, Payload: map[string]any{"conversation_id": "not-a-uuid"}},
		{Type: events.EventMessageSent, Payload: map[string]any{"conversation_id": 42}},
	}
	for _, ev := range bad {
		if _, ok := eventConversationID(ev); ok {
			t.Errorf("eventConversationID(%v) = ok, want not ok", ev.Payload)
		}
	}
}
