package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/support"
)

// TicketModel is the persistence model for the support Ticket aggregate root.
type TicketModel struct {
	AggregateModel
	TicketNumber string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	AssigneeID   *uuid.UUID           `gorm:"type:uuid;index"`
	Subject      string               `gorm:"type:varchar(200);not null"`
	Description  string               `gorm:"type:text"`
	Status       support.Status       `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	Messages     []TicketMessageModel `gorm:"foreignKey:TicketID;references:ID"`
	LastSequence int                  `gorm:"not null;default:0"`
	ResolvedAt   *time.Time
}

// TableName returns the table name for GORM
func (TicketModel) TableName() string {
	return "support_tickets"
}

// ToDomain converts the persistence model to a domain Ticket entity.
// Messages are ordered by sequence by the repository query.
func (m *TicketModel) ToDomain() *support.Ticket {
	t := &support.Ticket{
		TicketNumber: m.TicketNumber,
		CustomerID:   m.CustomerID,
		AssigneeID:   m.AssigneeID,
		Subject:      m.Subject,
		Description:  m.Description,
		Status:       m.Status,
		LastSequence: m.LastSequence,
		ResolvedAt:   m.ResolvedAt,
		Messages:     make([]support.Message, len(m.Messages)),
	}
	m.PopulateAggregateRoot(&t.BaseAggregateRoot)
	for i, msg := range m.Messages {
		t.Messages[i] = *msg.ToDomain()
	}
	return t
}

// FromDomain populates the persistence model from a domain Ticket entity.
func (m *TicketModel) FromDomain(t *support.Ticket) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.TicketNumber = t.TicketNumber
	m.CustomerID = t.CustomerID
	m.AssigneeID = t.AssigneeID
	m.Subject = t.Subject
	m.Description = t.Description
	m.Status = t.Status
	m.LastSequence = t.LastSequence
	m.ResolvedAt = t.ResolvedAt
	m.Messages = make([]TicketMessageModel, len(t.Messages))
	for i, msg := range t.Messages {
		m.Messages[i] = *TicketMessageModelFromDomain(&msg)
	}
}

// TicketModelFromDomain creates a new persistence model from a domain Ticket entity.
func TicketModelFromDomain(t *support.Ticket) *TicketModel {
	m := &TicketModel{}
	m.FromDomain(t)
	return m
}

// TicketMessageModel is the persistence model for ticket thread messages.
// The unique index on (ticket_id, sequence) backs the per-ticket ordering
// guarantee at the storage level.
type TicketMessageModel struct {
	ID         uuid.UUID        `gorm:"type:uuid;primary_key"`
	TicketID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_ticket_message_seq,priority:1"`
	SenderID   uuid.UUID        `gorm:"type:uuid;not null"`
	SenderRole shared.ActorRole `gorm:"type:varchar(20);not null"`
	Body       string           `gorm:"type:text;not null"`
	Sequence   int              `gorm:"not null;uniqueIndex:idx_ticket_message_seq,priority:2"`
	Timestamp  time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TicketMessageModel) TableName() string {
	return "support_ticket_messages"
}

// ToDomain converts the persistence model to a domain Message.
func (m *TicketMessageModel) ToDomain() *support.Message {
	return &support.Message{
		ID:         m.ID,
		TicketID:   m.TicketID,
		SenderID:   m.SenderID,
		SenderRole: m.SenderRole,
		Body:       m.Body,
		Sequence:   m.Sequence,
		Timestamp:  m.Timestamp,
	}
}

// TicketMessageModelFromDomain creates a new persistence model from a domain Message.
func TicketMessageModelFromDomain(msg *support.Message) *TicketMessageModel {
	return &TicketMessageModel{
		ID:         msg.ID,
		TicketID:   msg.TicketID,
		SenderID:   msg.SenderID,
		SenderRole: msg.SenderRole,
		Body:       msg.Body,
		Sequence:   msg.Sequence,
		Timestamp:  msg.Timestamp,
	}
}
