package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/returns"
)

// ReturnRequestModel is the persistence model for the ReturnRequest aggregate root.
type ReturnRequestModel struct {
	AggregateModel
	OrderID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	CustomerID uuid.UUID      `gorm:"type:uuid;not null;index"`
	ItemIDs    UUIDSlice      `gorm:"type:jsonb;not null"`
	Reason     string         `gorm:"type:varchar(500);not null"`
	Status     returns.Status `gorm:"type:varchar(20);not null;default:'REQUESTED';index"`
	ResolvedAt *time.Time
}

// TableName returns the table name for GORM
func (ReturnRequestModel) TableName() string {
	return "return_requests"
}

// ToDomain converts the persistence model to a domain ReturnRequest entity.
func (m *ReturnRequestModel) ToDomain() *returns.ReturnRequest {
	r := &returns.ReturnRequest{
		OrderID:    m.OrderID,
		CustomerID: m.CustomerID,
		ItemIDs:    []uuid.UUID(m.ItemIDs),
		Reason:     m.Reason,
		Status:     m.Status,
		ResolvedAt: m.ResolvedAt,
	}
	m.PopulateAggregateRoot(&r.BaseAggregateRoot)
	return r
}

// FromDomain populates the persistence model from a domain ReturnRequest entity.
func (m *ReturnRequestModel) FromDomain(r *returns.ReturnRequest) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.OrderID = r.OrderID
	m.CustomerID = r.CustomerID
	m.ItemIDs = UUIDSlice(r.ItemIDs)
	m.Reason = r.Reason
	m.Status = r.Status
	m.ResolvedAt = r.ResolvedAt
}

// ReturnRequestModelFromDomain creates a new persistence model from a domain ReturnRequest entity.
func ReturnRequestModelFromDomain(r *returns.ReturnRequest) *ReturnRequestModel {
	m := &ReturnRequestModel{}
	m.FromDomain(r)
	return m
}
