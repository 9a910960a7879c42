package returns

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeReturnRequest = "ReturnRequest"

// Event type constants
const (
	EventTypeReturnRequested     = "ReturnRequested"
	EventTypeReturnStatusChanged = "ReturnStatusChanged"
	EventTypeReturnCompleted     = "ReturnCompleted"
)

// ReturnRequestedEvent is raised when a customer opens a return request
type ReturnRequestedEvent struct {
	shared.BaseDomainEvent
	ReturnRequestID uuid.UUID   `json:"return_request_id"`
	OrderID         uuid.UUID   `json:"order_id"`
	CustomerID      uuid.UUID   `json:"customer_id"`
	ItemIDs         []uuid.UUID `json:"item_ids"`
	Reason          string      `json:"reason"`
}

// NewReturnRequestedEvent creates a new ReturnRequestedEvent
func NewReturnRequestedEvent(r *ReturnRequest) *ReturnRequestedEvent {
	return &ReturnRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnRequested, AggregateTypeReturnRequest, r.ID),
		ReturnRequestID: r.ID,
		OrderID:         r.OrderID,
		CustomerID:      r.CustomerID,
		ItemIDs:         r.ItemIDs,
		Reason:          r.Reason,
	}
}

// EventType returns the event type name
func (e *ReturnRequestedEvent) EventType() string {
	return EventTypeReturnRequested
}

// ReturnStatusChangedEvent is raised on every committed return transition
type ReturnStatusChangedEvent struct {
	shared.BaseDomainEvent
	ReturnRequestID uuid.UUID `json:"return_request_id"`
	OrderID         uuid.UUID `json:"order_id"`
	CustomerID      uuid.UUID `json:"customer_id"`
	FromStatus      Status    `json:"from_status"`
	ToStatus        Status    `json:"to_status"`
	Version         int       `json:"version"`
}

// NewReturnStatusChangedEvent creates a new ReturnStatusChangedEvent
func NewReturnStatusChangedEvent(r *ReturnRequest, from, to Status) *ReturnStatusChangedEvent {
	return &ReturnStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnStatusChanged, AggregateTypeReturnRequest, r.ID),
		ReturnRequestID: r.ID,
		OrderID:         r.OrderID,
		CustomerID:      r.CustomerID,
		FromStatus:      from,
		ToStatus:        to,
		Version:         r.Version,
	}
}

// EventType returns the event type name
func (e *ReturnStatusChangedEvent) EventType() string {
	return EventTypeReturnStatusChanged
}

// ReturnCompletedEvent is raised when a return reaches a terminal status.
// When OrderReturned is true the order lifecycle handler moves the order
// to RETURNED.
type ReturnCompletedEvent struct {
	shared.BaseDomainEvent
	ReturnRequestID uuid.UUID `json:"return_request_id"`
	OrderID         uuid.UUID `json:"order_id"`
	CustomerID      uuid.UUID `json:"customer_id"`
	FinalStatus     Status    `json:"final_status"`
	OrderReturned   bool      `json:"order_returned"`
}

// NewReturnCompletedEvent creates a new ReturnCompletedEvent
func NewReturnCompletedEvent(r *ReturnRequest) *ReturnCompletedEvent {
	return &ReturnCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnCompleted, AggregateTypeReturnRequest, r.ID),
		ReturnRequestID: r.ID,
		OrderID:         r.OrderID,
		CustomerID:      r.CustomerID,
		FinalStatus:     r.Status,
		OrderReturned:   r.OrderShouldBeReturned(),
	}
}

// EventType returns the event type name
func (e *ReturnCompletedEvent) EventType() string {
	return EventTypeReturnCompleted
}
