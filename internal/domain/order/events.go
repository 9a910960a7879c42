package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated       = "OrderCreated"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
	EventTypeOrderDelivered     = "OrderDelivered"
	EventTypeOrderCancelled     = "OrderCancelled"
	EventTypeOrderReturned      = "OrderReturned"
)

// OrderCreatedEvent is raised when a new order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		TotalAmount:     o.TotalAmount,
	}
}

// EventType returns the event type name
func (e *OrderCreatedEvent) EventType() string {
	return EventTypeOrderCreated
}

// OrderStatusChangedEvent is raised on every committed status transition.
// It carries ids and statuses only; consumers refetch the order for truth.
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	CustomerID  uuid.UUID   `json:"customer_id"`
	SellerIDs   []uuid.UUID `json:"seller_ids"`
	FromStatus  Status      `json:"from_status"`
	ToStatus    Status      `json:"to_status"`
	Version     int         `json:"version"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from, to Status) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		SellerIDs:       o.sellerIDs(),
		FromStatus:      from,
		ToStatus:        to,
		Version:         o.Version,
	}
}

// EventType returns the event type name
func (e *OrderStatusChangedEvent) EventType() string {
	return EventTypeOrderStatusChanged
}

// OrderDeliveredEvent is raised when an order reaches DELIVERED
// This event triggers invoice generation
type OrderDeliveredEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	DeliveredAt time.Time       `json:"delivered_at"`
}

// NewOrderDeliveredEvent creates a new OrderDeliveredEvent
func NewOrderDeliveredEvent(o *Order) *OrderDeliveredEvent {
	deliveredAt := time.Now()
	if o.DeliveredAt != nil {
		deliveredAt = *o.DeliveredAt
	}
	return &OrderDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderDelivered, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		TotalAmount:     o.TotalAmount,
		DeliveredAt:     deliveredAt,
	}
}

// EventType returns the event type name
func (e *OrderDeliveredEvent) EventType() string {
	return EventTypeOrderDelivered
}

// OrderCancelledEvent is raised when an order is cancelled
// If RefundRequired is true, a refund hold is placed with the payment collaborator
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID       `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	FromStatus     Status          `json:"from_status"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	CancelReason   string          `json:"cancel_reason"`
	RefundRequired bool            `json:"refund_required"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order, from Status) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		FromStatus:      from,
		TotalAmount:     o.TotalAmount,
		CancelReason:    o.CancelReason,
		RefundRequired:  o.PaymentStatus == PaymentStatusRefundPending,
	}
}

// EventType returns the event type name
func (e *OrderCancelledEvent) EventType() string {
	return EventTypeOrderCancelled
}

// OrderReturnedEvent is raised when the return workflow marks an order RETURNED
type OrderReturnedEvent struct {
	shared.BaseDomainEvent
	OrderID         uuid.UUID `json:"order_id"`
	OrderNumber     string    `json:"order_number"`
	CustomerID      uuid.UUID `json:"customer_id"`
	FromStatus      Status    `json:"from_status"`
	ReturnRequestID uuid.UUID `json:"return_request_id"`
}

// NewOrderReturnedEvent creates a new OrderReturnedEvent
func NewOrderReturnedEvent(o *Order, from Status, returnRequestID uuid.UUID) *OrderReturnedEvent {
	return &OrderReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderReturned, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		FromStatus:      from,
		ReturnRequestID: returnRequestID,
	}
}

// EventType returns the event type name
func (e *OrderReturnedEvent) EventType() string {
	return EventTypeOrderReturned
}

// sellerIDs returns the distinct seller ids across the order items
func (o *Order) sellerIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(o.Items))
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.SellerID]; ok {
			continue
		}
		seen[item.SellerID] = struct{}{}
		ids = append(ids, item.SellerID)
	}
	return ids
}
