package support

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeTicket = "SupportTicket"

// Event type constants
const (
	EventTypeTicketCreated        = "TicketCreated"
	EventTypeTicketMessageCreated = "TicketMessageCreated"
	EventTypeTicketStatusChanged  = "TicketStatusChanged"
)

// TicketCreatedEvent is raised when a new support ticket is opened
type TicketCreatedEvent struct {
	shared.BaseDomainEvent
	TicketID     uuid.UUID `json:"ticket_id"`
	TicketNumber string    `json:"ticket_number"`
	CustomerID   uuid.UUID `json:"customer_id"`
	Subject      string    `json:"subject"`
}

// NewTicketCreatedEvent creates a new TicketCreatedEvent
func NewTicketCreatedEvent(t *Ticket) *TicketCreatedEvent {
	return &TicketCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketCreated, AggregateTypeTicket, t.ID),
		TicketID:        t.ID,
		TicketNumber:    t.TicketNumber,
		CustomerID:      t.CustomerID,
		Subject:         t.Subject,
	}
}

// EventType returns the event type name
func (e *TicketCreatedEvent) EventType() string {
	return EventTypeTicketCreated
}

// TicketMessageCreatedEvent is raised when a message is posted to a ticket.
// Carries the sequence so subscribers can detect gaps and refetch the thread.
type TicketMessageCreatedEvent struct {
	shared.BaseDomainEvent
	TicketID   uuid.UUID        `json:"ticket_id"`
	CustomerID uuid.UUID        `json:"customer_id"`
	AssigneeID *uuid.UUID       `json:"assignee_id,omitempty"`
	MessageID  uuid.UUID        `json:"message_id"`
	SenderRole shared.ActorRole `json:"sender_role"`
	Sequence   int              `json:"sequence"`
	Timestamp  time.Time        `json:"timestamp"`
}

// NewTicketMessageCreatedEvent creates a new TicketMessageCreatedEvent
func NewTicketMessageCreatedEvent(t *Ticket, msg *Message) *TicketMessageCreatedEvent {
	return &TicketMessageCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketMessageCreated, AggregateTypeTicket, t.ID),
		TicketID:        t.ID,
		CustomerID:      t.CustomerID,
		AssigneeID:      t.AssigneeID,
		MessageID:       msg.ID,
		SenderRole:      msg.SenderRole,
		Sequence:        msg.Sequence,
		Timestamp:       msg.Timestamp,
	}
}

// EventType returns the event type name
func (e *TicketMessageCreatedEvent) EventType() string {
	return EventTypeTicketMessageCreated
}

// TicketStatusChangedEvent is raised on every ticket status move
type TicketStatusChangedEvent struct {
	shared.BaseDomainEvent
	TicketID   uuid.UUID  `json:"ticket_id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	AssigneeID *uuid.UUID `json:"assignee_id,omitempty"`
	FromStatus Status     `json:"from_status"`
	ToStatus   Status     `json:"to_status"`
	Version    int        `json:"version"`
}

// NewTicketStatusChangedEvent creates a new TicketStatusChangedEvent
func NewTicketStatusChangedEvent(t *Ticket, from, to Status) *TicketStatusChangedEvent {
	return &TicketStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketStatusChanged, AggregateTypeTicket, t.ID),
		TicketID:        t.ID,
		CustomerID:      t.CustomerID,
		AssigneeID:      t.AssigneeID,
		FromStatus:      from,
		ToStatus:        to,
		Version:         t.Version,
	}
}

// EventType returns the event type name
func (e *TicketStatusChangedEvent) EventType() string {
	return EventTypeTicketStatusChanged
}
