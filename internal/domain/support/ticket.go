package support

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Status represents the status of a support ticket
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
)

// IsValid checks if the status is a valid ticket Status
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusOpen:
		return target == StatusInProgress || target == StatusResolved
	case StatusInProgress:
		return target == StatusResolved
	case StatusResolved:
		return false // terminal
	}
	return false
}

// Message is a single entry in a ticket's conversation thread.
// Sequence numbers are dense and strictly increasing per ticket; they are
// assigned under the ticket's optimistic lock so concurrent posts serialize.
type Message struct {
	ID         uuid.UUID        `json:"id"`
	TicketID   uuid.UUID        `json:"ticket_id"`
	SenderID   uuid.UUID        `json:"sender_id"`
	SenderRole shared.ActorRole `json:"sender_role"`
	Body       string           `json:"body"`
	Sequence   int              `json:"sequence"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Ticket represents a support ticket aggregate root with its ordered
// message thread. Tickets are never deleted.
type Ticket struct {
	shared.BaseAggregateRoot
	TicketNumber string
	CustomerID   uuid.UUID
	AssigneeID   *uuid.UUID
	Subject      string
	Description  string
	Status       Status
	Messages     []Message
	LastSequence int
	ResolvedAt   *time.Time
}

// NewTicket creates a new support ticket in OPEN status
func NewTicket(ticketNumber string, customerID uuid.UUID, subject, description string) (*Ticket, error) {
	if ticketNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Ticket number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Customer ID cannot be empty")
	}
	if subject == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Subject cannot be empty")
	}
	if len(subject) > 200 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Subject cannot exceed 200 characters")
	}

	ticket := &Ticket{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TicketNumber:      ticketNumber,
		CustomerID:        customerID,
		Subject:           subject,
		Description:       description,
		Status:            StatusOpen,
		Messages:          make([]Message, 0),
	}

	ticket.AddDomainEvent(NewTicketCreatedEvent(ticket))

	return ticket, nil
}

// PostMessage appends a message to the thread, assigning the next sequence
// number. Posting to a RESOLVED ticket is rejected. A staff post moves an
// OPEN ticket to IN_PROGRESS.
func (t *Ticket) PostMessage(senderID uuid.UUID, senderRole shared.ActorRole, body string) (*Message, error) {
	if t.Status == StatusResolved {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Cannot post to a resolved ticket")
	}
	if senderID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Sender ID cannot be empty")
	}
	if !senderRole.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unknown sender role %q", senderRole))
	}
	if body == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Message body cannot be empty")
	}

	now := time.Now()
	t.LastSequence++
	msg := Message{
		ID:         uuid.New(),
		TicketID:   t.ID,
		SenderID:   senderID,
		SenderRole: senderRole,
		Body:       body,
		Sequence:   t.LastSequence,
		Timestamp:  now,
	}
	t.Messages = append(t.Messages, msg)
	t.UpdatedAt = now

	if t.Status == StatusOpen && senderRole.IsStaff() {
		t.changeStatus(StatusInProgress)
	}

	t.AddDomainEvent(NewTicketMessageCreatedEvent(t, &msg))

	return &t.Messages[len(t.Messages)-1], nil
}

// Assign assigns the ticket to a staff member and moves an OPEN ticket
// to IN_PROGRESS
func (t *Ticket) Assign(assigneeID uuid.UUID) error {
	if t.Status == StatusResolved {
		return shared.NewDomainError("INVALID_TRANSITION", "Cannot assign a resolved ticket")
	}
	if assigneeID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Assignee ID cannot be empty")
	}

	t.AssigneeID = &assigneeID
	t.UpdatedAt = time.Now()
	if t.Status == StatusOpen {
		t.changeStatus(StatusInProgress)
	}

	return nil
}

// Resolve closes the ticket. RESOLVED is terminal; further status changes
// and message posts are rejected.
func (t *Ticket) Resolve(role shared.ActorRole) error {
	if !role.IsStaff() {
		return shared.NewDomainError("UNAUTHORIZED", "Only staff can resolve tickets")
	}
	if !t.Status.CanTransitionTo(StatusResolved) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot resolve ticket in %s status", t.Status))
	}

	now := time.Now()
	t.ResolvedAt = &now
	t.changeStatus(StatusResolved)

	return nil
}

// changeStatus commits a validated status move and raises the change event
func (t *Ticket) changeStatus(target Status) {
	from := t.Status
	t.Status = target
	t.UpdatedAt = time.Now()
	t.AddDomainEvent(NewTicketStatusChangedEvent(t, from, target))
}

// GetMessage returns the message with the given sequence number
func (t *Ticket) GetMessage(sequence int) *Message {
	for idx := range t.Messages {
		if t.Messages[idx].Sequence == sequence {
			return &t.Messages[idx]
		}
	}
	return nil
}

// MessageCount returns the number of messages in the thread
func (t *Ticket) MessageCount() int {
	return len(t.Messages)
}

// IsResolved returns true if the ticket is resolved
func (t *Ticket) IsResolved() bool {
	return t.Status == StatusResolved
}
