package notification

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/returns"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/support"
	"github.com/storefront/backend/internal/infrastructure/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capture struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (c *capture) handler(payload []byte) {
	var msg notification.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return
	}
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
}

func (c *capture) all() []notification.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notification.Message(nil), c.messages...)
}

func subscribe(t *testing.T, broker *notification.LocalBroker, identityID uuid.UUID) *capture {
	t.Helper()
	c := &capture{}
	stop, err := broker.Subscribe(context.Background(), identityID, c.handler)
	require.NoError(t, err)
	t.Cleanup(stop)
	return c
}

func confirmedOrder(t *testing.T, customerID, sellerID uuid.UUID) *order.Order {
	t.Helper()
	address, err := valueobject.NewAddress("Jamie Doe", "", "1 Main St", "", "Springfield", "", "", "US")
	require.NoError(t, err)
	o, err := order.NewOrder("ORD-1", customerID, address)
	require.NoError(t, err)
	_, err = o.AddItem(uuid.New(), "Widget", sellerID, decimal.NewFromInt(1), valueobject.NewMoneyUSDFromFloat(5))
	require.NoError(t, err)
	return o
}

func TestFanoutHandler_OrderStatusChanged(t *testing.T) {
	broker := notification.NewLocalBroker()
	defer broker.Close()
	handler := NewFanoutHandler(broker, zap.NewNop())

	customerID := uuid.New()
	sellerID := uuid.New()
	customer := subscribe(t, broker, customerID)
	seller := subscribe(t, broker, sellerID)

	o := confirmedOrder(t, customerID, sellerID)
	event := order.NewOrderStatusChangedEvent(o, order.StatusPending, order.StatusConfirmed)

	err := handler.Handle(context.Background(), event)
	require.NoError(t, err)

	// the customer and every seller on the order receive the signal
	require.Len(t, customer.all(), 1)
	require.Len(t, seller.all(), 1)
	msg := customer.all()[0]
	assert.Equal(t, order.EventTypeOrderStatusChanged, msg.EventType)
	assert.Equal(t, o.ID, msg.AggregateID)
	assert.Equal(t, order.StatusConfirmed.String(), msg.Status)
}

func TestFanoutHandler_ReturnStatusChanged(t *testing.T) {
	broker := notification.NewLocalBroker()
	defer broker.Close()
	handler := NewFanoutHandler(broker, zap.NewNop())

	customerID := uuid.New()
	customer := subscribe(t, broker, customerID)

	r, err := returns.NewReturnRequest(uuid.New(), customerID, []uuid.UUID{uuid.New()}, "damaged")
	require.NoError(t, err)
	event := returns.NewReturnStatusChangedEvent(r, returns.StatusRequested, returns.StatusApproved)

	require.NoError(t, handler.Handle(context.Background(), event))

	require.Len(t, customer.all(), 1)
	assert.Equal(t, returns.StatusApproved.String(), customer.all()[0].Status)
}

func TestFanoutHandler_TicketMessageCreated(t *testing.T) {
	broker := notification.NewLocalBroker()
	defer broker.Close()
	handler := NewFanoutHandler(broker, zap.NewNop())

	customerID := uuid.New()
	assigneeID := uuid.New()
	customer := subscribe(t, broker, customerID)
	assignee := subscribe(t, broker, assigneeID)

	ticket, err := support.NewTicket("TKT-1", customerID, "Where is my order", "")
	require.NoError(t, err)
	require.NoError(t, ticket.Assign(assigneeID))
	msg, err := ticket.PostMessage(assigneeID, shared.RoleSupport, "Checking now")
	require.NoError(t, err)

	event := support.NewTicketMessageCreatedEvent(ticket, msg)
	require.NoError(t, handler.Handle(context.Background(), event))

	// both sides of the thread receive the signal with the message sequence
	require.Len(t, customer.all(), 1)
	require.Len(t, assignee.all(), 1)
	assert.Equal(t, msg.Sequence, customer.all()[0].Sequence)
}

func TestFanoutHandler_DuplicateRecipientsCollapsed(t *testing.T) {
	broker := notification.NewLocalBroker()
	defer broker.Close()
	handler := NewFanoutHandler(broker, zap.NewNop())

	// customer is also the assignee, the signal is sent once
	identityID := uuid.New()
	ticket, err := support.NewTicket("TKT-1", identityID, "Subject", "")
	require.NoError(t, err)
	require.NoError(t, ticket.Assign(identityID))

	sub := subscribe(t, broker, identityID)

	event := support.NewTicketStatusChangedEvent(ticket, support.StatusOpen, support.StatusInProgress)
	require.NoError(t, handler.Handle(context.Background(), event))

	assert.Len(t, sub.all(), 1)
}

func TestFanoutHandler_NoSubscribers(t *testing.T) {
	broker := notification.NewLocalBroker()
	defer broker.Close()
	handler := NewFanoutHandler(broker, zap.NewNop())

	o := confirmedOrder(t, uuid.New(), uuid.New())
	event := order.NewOrderStatusChangedEvent(o, order.StatusPending, order.StatusConfirmed)

	// delivery is best effort, nobody listening is not an error
	assert.NoError(t, handler.Handle(context.Background(), event))
}

func TestFanoutHandler_EventTypes(t *testing.T) {
	handler := NewFanoutHandler(notification.NewLocalBroker(), zap.NewNop())
	types := handler.EventTypes()
	assert.Contains(t, types, order.EventTypeOrderStatusChanged)
	assert.Contains(t, types, returns.EventTypeReturnCompleted)
	assert.Contains(t, types, support.EventTypeTicketMessageCreated)
}
