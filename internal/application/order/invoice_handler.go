package order

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/invoicing"
	"go.uber.org/zap"
)

// InvoiceHandler handles OrderDeliveredEvent by issuing an invoice through
// the invoicing collaborator. A failed call is returned so the outbox
// retries delivery; the order itself is already DELIVERED either way.
type InvoiceHandler struct {
	invoicingClient invoicing.Client
	logger          *zap.Logger
}

// NewInvoiceHandler creates a new handler for order delivered events
func NewInvoiceHandler(invoicingClient invoicing.Client, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoicingClient: invoicingClient,
		logger:          logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *InvoiceHandler) EventTypes() []string {
	return []string{order.EventTypeOrderDelivered}
}

// Handle processes an OrderDeliveredEvent
func (h *InvoiceHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	deliveredEvent, ok := event.(*order.OrderDeliveredEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			order.EventTypeOrderDelivered, event.EventType())
	}

	h.logger.Info("issuing invoice for delivered order",
		zap.String("order_id", deliveredEvent.OrderID.String()),
		zap.String("order_number", deliveredEvent.OrderNumber),
	)

	req := invoicing.InvoiceRequest{
		OrderID:     deliveredEvent.OrderID,
		OrderNumber: deliveredEvent.OrderNumber,
		CustomerID:  deliveredEvent.CustomerID,
		TotalAmount: deliveredEvent.TotalAmount,
		Currency:    "USD",
		DeliveredAt: deliveredEvent.DeliveredAt,
	}

	if err := h.invoicingClient.IssueInvoice(ctx, req); err != nil {
		h.logger.Error("failed to issue invoice",
			zap.String("order_id", deliveredEvent.OrderID.String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}
