package support

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/support"
)

// CreateTicketRequest represents a request to open a support ticket
type CreateTicketRequest struct {
	CustomerID  uuid.UUID `json:"customer_id" binding:"required"`
	Subject     string    `json:"subject" binding:"required,min=1,max=200"`
	Description string    `json:"description" binding:"max=2000"`
}

// PostMessageRequest appends a message to a ticket thread
type PostMessageRequest struct {
	SenderID   uuid.UUID        `json:"sender_id" binding:"required"`
	SenderRole shared.ActorRole `json:"sender_role" binding:"required"`
	Body       string           `json:"body" binding:"required,min=1,max=5000"`
}

// AssignTicketRequest assigns a ticket to a staff member
type AssignTicketRequest struct {
	AssigneeID uuid.UUID `json:"assignee_id" binding:"required"`
}

// ResolveTicketRequest closes a ticket
type ResolveTicketRequest struct {
	ActorRole shared.ActorRole `json:"actor_role" binding:"required"`
}

// TicketListFilter represents filter options for the ticket list
type TicketListFilter struct {
	Search     string          `form:"search"`
	CustomerID *uuid.UUID      `form:"customer_id"`
	AssigneeID *uuid.UUID      `form:"assignee_id"`
	Status     *support.Status `form:"status"`
	Page       int             `form:"page" binding:"min=0"`
	PageSize   int             `form:"page_size" binding:"min=0,max=100"`
	OrderBy    string          `form:"order_by"`
	OrderDir   string          `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MessageResponse represents a thread message in responses
type MessageResponse struct {
	ID         uuid.UUID        `json:"id"`
	SenderID   uuid.UUID        `json:"sender_id"`
	SenderRole shared.ActorRole `json:"sender_role"`
	Body       string           `json:"body"`
	Sequence   int              `json:"sequence"`
	Timestamp  time.Time        `json:"timestamp"`
}

// TicketResponse represents a ticket with its full thread
type TicketResponse struct {
	ID           uuid.UUID         `json:"id"`
	TicketNumber string            `json:"ticket_number"`
	CustomerID   uuid.UUID         `json:"customer_id"`
	AssigneeID   *uuid.UUID        `json:"assignee_id,omitempty"`
	Subject      string            `json:"subject"`
	Description  string            `json:"description"`
	Status       support.Status    `json:"status"`
	Messages     []MessageResponse `json:"messages"`
	ResolvedAt   *time.Time        `json:"resolved_at,omitempty"`
	Version      int               `json:"version"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// TicketListItemResponse represents a ticket in list responses
type TicketListItemResponse struct {
	ID           uuid.UUID      `json:"id"`
	TicketNumber string         `json:"ticket_number"`
	CustomerID   uuid.UUID      `json:"customer_id"`
	AssigneeID   *uuid.UUID     `json:"assignee_id,omitempty"`
	Subject      string         `json:"subject"`
	Status       support.Status `json:"status"`
	MessageCount int            `json:"message_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ToMessageResponse converts a domain message to a response DTO
func ToMessageResponse(msg *support.Message) MessageResponse {
	return MessageResponse{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		SenderRole: msg.SenderRole,
		Body:       msg.Body,
		Sequence:   msg.Sequence,
		Timestamp:  msg.Timestamp,
	}
}

// ToTicketResponse converts a domain ticket to a response DTO
func ToTicketResponse(t *support.Ticket) TicketResponse {
	messages := make([]MessageResponse, 0, len(t.Messages))
	for idx := range t.Messages {
		messages = append(messages, ToMessageResponse(&t.Messages[idx]))
	}
	return TicketResponse{
		ID:           t.ID,
		TicketNumber: t.TicketNumber,
		CustomerID:   t.CustomerID,
		AssigneeID:   t.AssigneeID,
		Subject:      t.Subject,
		Description:  t.Description,
		Status:       t.Status,
		Messages:     messages,
		ResolvedAt:   t.ResolvedAt,
		Version:      t.Version,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// ToTicketListItemResponse converts a domain ticket to a list item DTO
func ToTicketListItemResponse(t *support.Ticket) TicketListItemResponse {
	return TicketListItemResponse{
		ID:           t.ID,
		TicketNumber: t.TicketNumber,
		CustomerID:   t.CustomerID,
		AssigneeID:   t.AssigneeID,
		Subject:      t.Subject,
		Status:       t.Status,
		MessageCount: t.MessageCount(),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// ToTicketListItemResponses converts a slice of domain tickets
func ToTicketListItemResponses(tickets []support.Ticket) []TicketListItemResponse {
	responses := make([]TicketListItemResponse, 0, len(tickets))
	for idx := range tickets {
		responses = append(responses, ToTicketListItemResponse(&tickets[idx]))
	}
	return responses
}
