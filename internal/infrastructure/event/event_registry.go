package event

import (
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/returns"
	"github.com/storefront/backend/internal/domain/support"
)

// RegisterAllEvents registers every domain event type with the serializer.
// Outbox deserialization depends on this list being complete, so any new
// event type added to a domain package must be registered here.
func RegisterAllEvents(serializer *EventSerializer) {
	// Order events
	serializer.Register(order.EventTypeOrderCreated, &order.OrderCreatedEvent{})
	serializer.Register(order.EventTypeOrderStatusChanged, &order.OrderStatusChangedEvent{})
	serializer.Register(order.EventTypeOrderDelivered, &order.OrderDeliveredEvent{})
	serializer.Register(order.EventTypeOrderCancelled, &order.OrderCancelledEvent{})
	serializer.Register(order.EventTypeOrderReturned, &order.OrderReturnedEvent{})

	// Return events
	serializer.Register(returns.EventTypeReturnRequested, &returns.ReturnRequestedEvent{})
	serializer.Register(returns.EventTypeReturnStatusChanged, &returns.ReturnStatusChangedEvent{})
	serializer.Register(returns.EventTypeReturnCompleted, &returns.ReturnCompletedEvent{})

	// Support ticket events
	serializer.Register(support.EventTypeTicketCreated, &support.TicketCreatedEvent{})
	serializer.Register(support.EventTypeTicketMessageCreated, &support.TicketMessageCreatedEvent{})
	serializer.Register(support.EventTypeTicketStatusChanged, &support.TicketStatusChangedEvent{})
}
