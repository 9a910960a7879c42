package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Timeline stores the append-only status history as a JSON column
type Timeline []order.TimelineEntry

// Value implements driver.Valuer
func (t Timeline) Value() (driver.Value, error) {
	return json.Marshal([]order.TimelineEntry(t))
}

// Scan implements sql.Scanner
func (t *Timeline) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, (*[]order.TimelineEntry)(t))
	case string:
		return json.Unmarshal([]byte(v), (*[]order.TimelineEntry)(t))
	default:
		return fmt.Errorf("unsupported timeline scan type %T", value)
	}
}

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	AggregateModel
	OrderNumber       string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID        uuid.UUID           `gorm:"type:uuid;not null;index"`
	Items             []OrderItemModel    `gorm:"foreignKey:OrderID;references:ID"`
	Status            order.Status        `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentStatus     order.PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Timeline          Timeline            `gorm:"type:jsonb;not null"`
	ShippingAddress   valueobject.Address `gorm:"type:jsonb;not null"`
	TotalAmount       decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	EstimatedDelivery *time.Time
	DeliveredAt       *time.Time `gorm:"index"`
	CancelledAt       *time.Time
	CancelReason      string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		OrderNumber:       m.OrderNumber,
		CustomerID:        m.CustomerID,
		Status:            m.Status,
		PaymentStatus:     m.PaymentStatus,
		Timeline:          []order.TimelineEntry(m.Timeline),
		ShippingAddress:   m.ShippingAddress,
		TotalAmount:       m.TotalAmount,
		EstimatedDelivery: m.EstimatedDelivery,
		DeliveredAt:       m.DeliveredAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		Items:             make([]order.Item, len(m.Items)),
	}
	m.PopulateAggregateRoot(&o.BaseAggregateRoot)
	for i, item := range m.Items {
		o.Items[i] = *item.ToDomain()
	}
	return o
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.CustomerID
	m.Status = o.Status
	m.PaymentStatus = o.PaymentStatus
	m.Timeline = Timeline(o.Timeline)
	m.ShippingAddress = o.ShippingAddress
	m.TotalAmount = o.TotalAmount
	m.EstimatedDelivery = o.EstimatedDelivery
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.Items = make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = *OrderItemModelFromDomain(&item)
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for the order Item entity.
type OrderItemModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName  string          `gorm:"type:varchar(200);not null"`
	SellerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SellerStatus order.Status    `gorm:"type:varchar(20);not null;default:'PENDING'"`
	CreatedAt    time.Time       `gorm:"not null"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain order Item.
func (m *OrderItemModel) ToDomain() *order.Item {
	return &order.Item{
		ID:           m.ID,
		OrderID:      m.OrderID,
		ProductID:    m.ProductID,
		ProductName:  m.ProductName,
		SellerID:     m.SellerID,
		Quantity:     m.Quantity,
		UnitPrice:    m.UnitPrice,
		Amount:       m.Amount,
		SellerStatus: m.SellerStatus,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// OrderItemModelFromDomain creates a new persistence model from a domain order Item.
func OrderItemModelFromDomain(i *order.Item) *OrderItemModel {
	return &OrderItemModel{
		ID:           i.ID,
		OrderID:      i.OrderID,
		ProductID:    i.ProductID,
		ProductName:  i.ProductName,
		SellerID:     i.SellerID,
		Quantity:     i.Quantity,
		UnitPrice:    i.UnitPrice,
		Amount:       i.Amount,
		SellerStatus: i.SellerStatus,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}
