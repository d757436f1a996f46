package events

import "context"

// Pub/sub streams.
const (
	StreamMessages = "events:messages"
	StreamTimeline = "events:timeline"
	StreamLoans    = "events:loans"
)

// Event types carried over the streams.
const (
	EventMessageSent       = "message_sent"
	EventMessageEdited     = "message_edited"
	EventMessageDeleted    = "message_deleted"
	EventTimelinePosted    = "timeline_posted"
	EventLoanStatusChanged = "loan_status_changed"
	EventLoanOverdue       = "loan_overdue"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
