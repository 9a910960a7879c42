package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/invoicing"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockInvoicingClient is a mock implementation of invoicing.Client
type MockInvoicingClient struct {
	mock.Mock
}

func (m *MockInvoicingClient) IssueInvoice(ctx context.Context, req invoicing.InvoiceRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockPaymentClient is a mock implementation of payment.Client
type MockPaymentClient struct {
	mock.Mock
}

func (m *MockPaymentClient) HoldRefund(ctx context.Context, req payment.RefundHoldRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func deliveredEvent() *order.OrderDeliveredEvent {
	return &order.OrderDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventTypeOrderDelivered, order.AggregateTypeOrder, uuid.New()),
		OrderID:         uuid.New(),
		OrderNumber:     "ORD-1",
		CustomerID:      uuid.New(),
		TotalAmount:     decimal.NewFromFloat(49.90),
		DeliveredAt:     time.Now(),
	}
}

func cancelledEvent(refundRequired bool) *order.OrderCancelledEvent {
	return &order.OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventTypeOrderCancelled, order.AggregateTypeOrder, uuid.New()),
		OrderID:         uuid.New(),
		OrderNumber:     "ORD-2",
		CustomerID:      uuid.New(),
		FromStatus:      order.StatusConfirmed,
		TotalAmount:     decimal.NewFromFloat(19.90),
		CancelReason:    "changed my mind",
		RefundRequired:  refundRequired,
	}
}

func TestInvoiceHandler_Handle(t *testing.T) {
	client := new(MockInvoicingClient)
	handler := NewInvoiceHandler(client, zap.NewNop())

	event := deliveredEvent()
	client.On("IssueInvoice", mock.Anything, mock.MatchedBy(func(req invoicing.InvoiceRequest) bool {
		return req.OrderID == event.OrderID && req.TotalAmount.Equal(event.TotalAmount)
	})).Return(nil)

	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestInvoiceHandler_Handle_ClientError(t *testing.T) {
	client := new(MockInvoicingClient)
	handler := NewInvoiceHandler(client, zap.NewNop())

	client.On("IssueInvoice", mock.Anything, mock.Anything).Return(errors.New("gateway timeout"))

	err := handler.Handle(context.Background(), deliveredEvent())
	assert.Error(t, err)
}

func TestInvoiceHandler_Handle_WrongEventType(t *testing.T) {
	client := new(MockInvoicingClient)
	handler := NewInvoiceHandler(client, zap.NewNop())

	err := handler.Handle(context.Background(), cancelledEvent(true))

	assert.Error(t, err)
	client.AssertNotCalled(t, "IssueInvoice", mock.Anything, mock.Anything)
}

func TestInvoiceHandler_EventTypes(t *testing.T) {
	handler := NewInvoiceHandler(new(MockInvoicingClient), zap.NewNop())
	assert.Equal(t, []string{order.EventTypeOrderDelivered}, handler.EventTypes())
}

func TestRefundHoldHandler_Handle(t *testing.T) {
	client := new(MockPaymentClient)
	handler := NewRefundHoldHandler(client, zap.NewNop())

	event := cancelledEvent(true)
	client.On("HoldRefund", mock.Anything, mock.MatchedBy(func(req payment.RefundHoldRequest) bool {
		return req.OrderID == event.OrderID && req.Reason == "changed my mind"
	})).Return(nil)

	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestRefundHoldHandler_Handle_NoRefundRequired(t *testing.T) {
	client := new(MockPaymentClient)
	handler := NewRefundHoldHandler(client, zap.NewNop())

	err := handler.Handle(context.Background(), cancelledEvent(false))

	require.NoError(t, err)
	client.AssertNotCalled(t, "HoldRefund", mock.Anything, mock.Anything)
}

func TestRefundHoldHandler_Handle_ClientError(t *testing.T) {
	client := new(MockPaymentClient)
	handler := NewRefundHoldHandler(client, zap.NewNop())

	client.On("HoldRefund", mock.Anything, mock.Anything).Return(errors.New("gateway timeout"))

	err := handler.Handle(context.Background(), cancelledEvent(true))
	assert.Error(t, err)
}
