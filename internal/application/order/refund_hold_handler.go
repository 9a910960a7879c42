package order

import (
	"context"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"go.uber.org/zap"
)

// RefundHoldHandler handles OrderCancelledEvent by placing a refund hold
// with the payment collaborator when the cancelled order had been paid.
// Cancellations of unpaid orders need no hold and are skipped.
type RefundHoldHandler struct {
	paymentClient payment.Client
	logger        *zap.Logger
}

// NewRefundHoldHandler creates a new handler for order cancelled events
func NewRefundHoldHandler(paymentClient payment.Client, logger *zap.Logger) *RefundHoldHandler {
	return &RefundHoldHandler{
		paymentClient: paymentClient,
		logger:        logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *RefundHoldHandler) EventTypes() []string {
	return []string{order.EventTypeOrderCancelled}
}

// Handle processes an OrderCancelledEvent
func (h *RefundHoldHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	cancelledEvent, ok := event.(*order.OrderCancelledEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			order.EventTypeOrderCancelled, event.EventType())
	}

	if !cancelledEvent.RefundRequired {
		h.logger.Debug("no refund required for cancelled order",
			zap.String("order_id", cancelledEvent.OrderID.String()),
		)
		return nil
	}

	h.logger.Info("placing refund hold for cancelled order",
		zap.String("order_id", cancelledEvent.OrderID.String()),
		zap.String("order_number", cancelledEvent.OrderNumber),
		zap.String("amount", cancelledEvent.TotalAmount.String()),
	)

	req := payment.RefundHoldRequest{
		OrderID:     cancelledEvent.OrderID,
		OrderNumber: cancelledEvent.OrderNumber,
		CustomerID:  cancelledEvent.CustomerID,
		Amount:      cancelledEvent.TotalAmount,
		Currency:    "USD",
		Reason:      cancelledEvent.CancelReason,
		CancelledAt: event.OccurredAt(),
	}
	if req.CancelledAt.IsZero() {
		req.CancelledAt = time.Now()
	}

	if err := h.paymentClient.HoldRefund(ctx, req); err != nil {
		h.logger.Error("failed to place refund hold",
			zap.String("order_id", cancelledEvent.OrderID.String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}
