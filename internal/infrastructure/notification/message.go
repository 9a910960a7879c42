package notification

import (
	"time"

	"github.com/google/uuid"
)

// Message is the payload fanned out to per-identity channels.
// It is a cache-invalidation signal only: ids plus the new status.
// Consumers refetch the authoritative entity instead of trusting the
// payload as ground truth.
type Message struct {
	EventType     string    `json:"event_type"`
	AggregateType string    `json:"aggregate_type"`
	AggregateID   uuid.UUID `json:"aggregate_id"`
	Status        string    `json:"status,omitempty"`
	Sequence      int       `json:"sequence,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewMessage creates a notification message stamped with the current time
func NewMessage(eventType, aggregateType string, aggregateID uuid.UUID, status string) Message {
	return Message{
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Status:        status,
		Timestamp:     time.Now(),
	}
}
