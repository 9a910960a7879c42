package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/returns"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/support"
	"github.com/storefront/backend/internal/infrastructure/notification"
	"go.uber.org/zap"
)

// FanoutHandler bridges domain events to per-identity notification
// channels. Each affected identity gets an invalidation signal naming the
// aggregate and its new status; clients refetch over HTTP for truth.
// Delivery failures are logged and swallowed, never propagated, since a
// missed signal is repaired by the client's next poll.
type FanoutHandler struct {
	notifier notification.Notifier
	logger   *zap.Logger
}

// NewFanoutHandler creates a new notification fan-out handler
func NewFanoutHandler(notifier notification.Notifier, logger *zap.Logger) *FanoutHandler {
	return &FanoutHandler{
		notifier: notifier,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *FanoutHandler) EventTypes() []string {
	return []string{
		order.EventTypeOrderStatusChanged,
		order.EventTypeOrderReturned,
		returns.EventTypeReturnRequested,
		returns.EventTypeReturnStatusChanged,
		returns.EventTypeReturnCompleted,
		support.EventTypeTicketCreated,
		support.EventTypeTicketMessageCreated,
		support.EventTypeTicketStatusChanged,
	}
}

// Handle fans a domain event out to the identities it affects
func (h *FanoutHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderStatusChangedEvent:
		msg := notification.NewMessage(e.EventType(), order.AggregateTypeOrder, e.OrderID, e.ToStatus.String())
		recipients := append([]uuid.UUID{e.CustomerID}, e.SellerIDs...)
		h.notify(ctx, msg, recipients...)
	case *order.OrderReturnedEvent:
		msg := notification.NewMessage(e.EventType(), order.AggregateTypeOrder, e.OrderID, order.StatusReturned.String())
		h.notify(ctx, msg, e.CustomerID)
	case *returns.ReturnRequestedEvent:
		msg := notification.NewMessage(e.EventType(), returns.AggregateTypeReturnRequest, e.ReturnRequestID, returns.StatusRequested.String())
		h.notify(ctx, msg, e.CustomerID)
	case *returns.ReturnStatusChangedEvent:
		msg := notification.NewMessage(e.EventType(), returns.AggregateTypeReturnRequest, e.ReturnRequestID, e.ToStatus.String())
		h.notify(ctx, msg, e.CustomerID)
	case *returns.ReturnCompletedEvent:
		msg := notification.NewMessage(e.EventType(), returns.AggregateTypeReturnRequest, e.ReturnRequestID, e.FinalStatus.String())
		h.notify(ctx, msg, e.CustomerID)
	case *support.TicketCreatedEvent:
		msg := notification.NewMessage(e.EventType(), support.AggregateTypeTicket, e.TicketID, support.StatusOpen.String())
		h.notify(ctx, msg, e.CustomerID)
	case *support.TicketMessageCreatedEvent:
		msg := notification.NewMessage(e.EventType(), support.AggregateTypeTicket, e.TicketID, "")
		msg.Sequence = e.Sequence
		recipients := []uuid.UUID{e.CustomerID}
		if e.AssigneeID != nil {
			recipients = append(recipients, *e.AssigneeID)
		}
		h.notify(ctx, msg, recipients...)
	case *support.TicketStatusChangedEvent:
		msg := notification.NewMessage(e.EventType(), support.AggregateTypeTicket, e.TicketID, e.ToStatus.String())
		recipients := []uuid.UUID{e.CustomerID}
		if e.AssigneeID != nil {
			recipients = append(recipients, *e.AssigneeID)
		}
		h.notify(ctx, msg, recipients...)
	default:
		h.logger.Debug("no fan-out for event type",
			zap.String("event_type", event.EventType()),
		)
	}
	return nil
}

func (h *FanoutHandler) notify(ctx context.Context, msg notification.Message, identityIDs ...uuid.UUID) {
	seen := make(map[uuid.UUID]struct{}, len(identityIDs))
	for _, identityID := range identityIDs {
		if identityID == uuid.Nil {
			continue
		}
		if _, dup := seen[identityID]; dup {
			continue
		}
		seen[identityID] = struct{}{}

		if err := h.notifier.Notify(ctx, identityID, msg); err != nil {
			h.logger.Warn("notification delivery failed",
				zap.String("identity_id", identityID.String()),
				zap.String("event_type", msg.EventType),
				zap.Error(err),
			)
		}
	}
}
