package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies an audit event in the delivery trail.
type EventType string

const (
	// Run lifecycle events
	EventRunStarted   EventType = "run.started"
	EventRunCompleted EventType = "run.completed"

	// Per-recipient delivery events
	EventMailSent    EventType = "mail.sent"
	EventMailRetried EventType = "mail.retried"
	EventMailFailed  EventType = "mail.failed"

	// Loader events
	EventRecipientSkipped EventType = "recipient.skipped"
)

// Event is one entry in the delivery audit trail. Events are emitted per
// recipient outcome and at run boundaries; they are the durable record of
// who was mailed, when, and with what result.
type Event struct {
	// ID uniquely identifies this event.
	ID string `json:"id"`

	// RunID ties all events of one batch together.
	RunID string `json:"runId"`

	// Type is the event classification.
	Type EventType `json:"type"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Recipient is the destination address, when the event concerns one.
	Recipient string `json:"recipient,omitempty"`

	// Attempts is the number of send attempts consumed, for delivery events.
	Attempts int `json:"attempts,omitempty"`

	// Error carries the failure detail for failed or retried sends.
	Error string `json:"error,omitempty"`

	// Details holds additional free-form context.
	Details map[string]string `json:"details,omitempty"`
}

// NewEvent creates an Event with a fresh ID and the current timestamp.
func NewEvent(runID string, t EventType) *Event {
	return &Event{
		ID:        uuid.NewString(),
		RunID:     runID,
		Type:      t,
		Timestamp: time.Now().UTC(),
	}
}
