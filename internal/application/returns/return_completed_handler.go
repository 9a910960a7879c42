package returns

import (
	"context"
	"fmt"

	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/returns"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReturnCompletedHandler handles ReturnCompletedEvent by marking the order
// RETURNED when the outcome brings the goods back. Rejected returns leave
// the order untouched.
type ReturnCompletedHandler struct {
	orderService *orderapp.OrderService
	logger       *zap.Logger
}

// NewReturnCompletedHandler creates a new handler for return completed events
func NewReturnCompletedHandler(orderService *orderapp.OrderService, logger *zap.Logger) *ReturnCompletedHandler {
	return &ReturnCompletedHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ReturnCompletedHandler) EventTypes() []string {
	return []string{returns.EventTypeReturnCompleted}
}

// Handle processes a ReturnCompletedEvent
func (h *ReturnCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	completedEvent, ok := event.(*returns.ReturnCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			returns.EventTypeReturnCompleted, event.EventType())
	}

	if !completedEvent.OrderReturned {
		h.logger.Debug("return closed without goods coming back",
			zap.String("return_request_id", completedEvent.ReturnRequestID.String()),
			zap.String("final_status", completedEvent.FinalStatus.String()),
		)
		return nil
	}

	h.logger.Info("marking order returned",
		zap.String("order_id", completedEvent.OrderID.String()),
		zap.String("return_request_id", completedEvent.ReturnRequestID.String()),
	)

	if err := h.orderService.MarkReturned(ctx, completedEvent.OrderID, completedEvent.ReturnRequestID); err != nil {
		h.logger.Error("failed to mark order returned",
			zap.String("order_id", completedEvent.OrderID.String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}
