package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func testAddress(t *testing.T) valueobject.Address {
	addr, err := valueobject.NewAddress("Jane Doe", "+1-555-0100", "1 Main St", "", "Springfield", "IL", "62701", "US")
	require.NoError(t, err)
	return addr
}

func createTestOrder(t *testing.T) *Order {
	o, err := NewOrder("ORD-2026-0001", uuid.New(), testAddress(t))
	require.NoError(t, err)
	return o
}

func addTestItem(t *testing.T, o *Order, productName string, quantity float64, price float64) *Item {
	item, err := o.AddItem(uuid.New(), productName, uuid.New(), decimal.NewFromFloat(quantity), valueobject.NewMoneyUSDFromFloat(price))
	require.NoError(t, err)
	return item
}

// advance moves the order to the target status as admin, stepping through
// the full chain so tests can start from any point
func advanceTo(t *testing.T, o *Order, target Status) {
	chain := []Status{StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered}
	for _, s := range chain {
		if o.Status == target {
			return
		}
		require.NoError(t, o.Transition(shared.RoleAdmin, s))
		if s == target {
			return
		}
	}
}

// ============================================
// Status Tests
// ============================================

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  Status
		isValid bool
	}{
		{StatusPending, true},
		{StatusConfirmed, true},
		{StatusProcessing, true},
		{StatusShipped, true},
		{StatusDelivered, true},
		{StatusCancelled, true},
		{StatusReturned, true},
		{Status("INVALID"), false},
		{Status(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     Status
		to       Status
		canTrans bool
	}{
		// Forward chain, single step
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		// Forward chain, multi step
		{StatusPending, StatusShipped, true},
		{StatusConfirmed, StatusDelivered, true},
		// Backward moves never allowed
		{StatusConfirmed, StatusPending, false},
		{StatusShipped, StatusProcessing, false},
		{StatusDelivered, StatusShipped, false},
		// Cancellation only before shipment
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		// RETURNED only from DELIVERED
		{StatusDelivered, StatusReturned, true},
		{StatusShipped, StatusReturned, false},
		{StatusPending, StatusReturned, false},
		// Terminal states
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusPending, false},
		{StatusReturned, StatusDelivered, false},
		{StatusReturned, StatusCancelled, false},
		// Self transitions
		{StatusPending, StatusPending, false},
		{StatusDelivered, StatusDelivered, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

// ============================================
// NewOrder Tests
// ============================================

func TestNewOrder(t *testing.T) {
	customerID := uuid.New()

	t.Run("creates order with valid inputs", func(t *testing.T) {
		o, err := NewOrder("ORD-2026-0001", customerID, testAddress(t))
		require.NoError(t, err)
		require.NotNil(t, o)

		assert.Equal(t, "ORD-2026-0001", o.OrderNumber)
		assert.Equal(t, customerID, o.CustomerID)
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, PaymentStatusPending, o.PaymentStatus)
		assert.Empty(t, o.Items)
		assert.True(t, o.TotalAmount.IsZero())
		assert.NotEmpty(t, o.ID)
		assert.Equal(t, 1, o.GetVersion())
	})

	t.Run("seeds timeline with PENDING entry", func(t *testing.T) {
		o, err := NewOrder("ORD-2026-0002", customerID, testAddress(t))
		require.NoError(t, err)

		require.Len(t, o.Timeline, 1)
		assert.Equal(t, StatusPending, o.Timeline[0].Status)
		assert.True(t, o.Timeline[0].Completed)
	})

	t.Run("publishes OrderCreated event", func(t *testing.T) {
		o, err := NewOrder("ORD-2026-0003", customerID, testAddress(t))
		require.NoError(t, err)

		events := o.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeOrderCreated, events[0].EventType())

		event, ok := events[0].(*OrderCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, o.ID, event.OrderID)
		assert.Equal(t, o.OrderNumber, event.OrderNumber)
	})

	t.Run("fails with empty order number", func(t *testing.T) {
		_, err := NewOrder("", customerID, testAddress(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Order number cannot be empty")
	})

	t.Run("fails with nil customer", func(t *testing.T) {
		_, err := NewOrder("ORD-2026-0004", uuid.Nil, testAddress(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Customer ID cannot be empty")
	})

	t.Run("fails with invalid address", func(t *testing.T) {
		_, err := NewOrder("ORD-2026-0005", customerID, valueobject.Address{})
		require.Error(t, err)
	})
}

// ============================================
// AddItem Tests
// ============================================

func TestOrder_AddItem(t *testing.T) {
	t.Run("adds item and recalculates total", func(t *testing.T) {
		o := createTestOrder(t)
		addTestItem(t, o, "Widget", 2, 9.99)
		addTestItem(t, o, "Gadget", 1, 25.00)

		assert.Equal(t, 2, o.ItemCount())
		assert.True(t, o.TotalAmount.Equal(decimal.NewFromFloat(44.98)))
	})

	t.Run("new item starts in PENDING seller status", func(t *testing.T) {
		o := createTestOrder(t)
		item := addTestItem(t, o, "Widget", 1, 5.00)
		assert.Equal(t, StatusPending, item.SellerStatus)
	})

	t.Run("rejects duplicate product from same seller", func(t *testing.T) {
		o := createTestOrder(t)
		productID := uuid.New()
		sellerID := uuid.New()
		_, err := o.AddItem(productID, "Widget", sellerID, decimal.NewFromInt(1), valueobject.NewMoneyUSDFromFloat(5))
		require.NoError(t, err)

		_, err = o.AddItem(productID, "Widget", sellerID, decimal.NewFromInt(2), valueobject.NewMoneyUSDFromFloat(5))
		require.Error(t, err)
	})

	t.Run("rejects items after PENDING", func(t *testing.T) {
		o := createTestOrder(t)
		addTestItem(t, o, "Widget", 1, 5.00)
		require.NoError(t, o.Transition(shared.RoleAdmin, StatusConfirmed))

		_, err := o.AddItem(uuid.New(), "Gadget", uuid.New(), decimal.NewFromInt(1), valueobject.NewMoneyUSDFromFloat(5))
		require.Error(t, err)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		o := createTestOrder(t)
		_, err := o.AddItem(uuid.New(), "Widget", uuid.New(), decimal.Zero, valueobject.NewMoneyUSDFromFloat(5))
		require.Error(t, err)
	})
}

// ============================================
// Transition Tests
// ============================================

func TestOrder_Transition(t *testing.T) {
	t.Run("admin walks the full chain", func(t *testing.T) {
		o := createTestOrder(t)
		for _, target := range []Status{StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered} {
			require.NoError(t, o.Transition(shared.RoleAdmin, target))
			assert.Equal(t, target, o.Status)
		}
		assert.NotNil(t, o.DeliveredAt)
		assert.Len(t, o.Timeline, 5)
	})

	t.Run("seller advances multiple steps at once", func(t *testing.T) {
		o := createTestOrder(t)
		require.NoError(t, o.Transition(shared.RoleSeller, StatusShipped))
		assert.Equal(t, StatusShipped, o.Status)
	})

	t.Run("seller cannot move backward", func(t *testing.T) {
		o := createTestOrder(t)
		advanceTo(t, o, StatusShipped)

		err := o.Transition(shared.RoleSeller, StatusConfirmed)
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_TRANSITION", derr.Code)
	})

	t.Run("seller cannot cancel", func(t *testing.T) {
		o := createTestOrder(t)
		err := o.Transition(shared.RoleSeller, StatusCancelled)
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "UNAUTHORIZED", derr.Code)
	})

	t.Run("customer cancels a pending order", func(t *testing.T) {
		o := createTestOrder(t)
		require.NoError(t, o.Transition(shared.RoleCustomer, StatusCancelled))
		assert.Equal(t, StatusCancelled, o.Status)
		assert.NotNil(t, o.CancelledAt)
	})

	t.Run("customer cannot cancel after shipment", func(t *testing.T) {
		o := createTestOrder(t)
		advanceTo(t, o, StatusShipped)

		err := o.Transition(shared.RoleCustomer, StatusCancelled)
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_TRANSITION", derr.Code)
	})

	t.Run("customer cannot advance fulfillment", func(t *testing.T) {
		o := createTestOrder(t)
		err := o.Transition(shared.RoleCustomer, StatusConfirmed)
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "UNAUTHORIZED", derr.Code)
	})

	t.Run("support cannot change order status", func(t *testing.T) {
		o := createTestOrder(t)
		err := o.Transition(shared.RoleSupport, StatusConfirmed)
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "UNAUTHORIZED", derr.Code)
	})

	t.Run("RETURNED is rejected as a direct target", func(t *testing.T) {
		o := createTestOrder(t)
		advanceTo(t, o, StatusDelivered)

		err := o.Transition(shared.RoleAdmin, StatusReturned)
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_TRANSITION", derr.Code)
	})

	t.Run("terminal states reject further transitions", func(t *testing.T) {
		o := createTestOrder(t)
		require.NoError(t, o.Transition(shared.RoleAdmin, StatusCancelled))

		err := o.Transition(shared.RoleAdmin, StatusConfirmed)
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_TRANSITION", derr.Code)
	})

	t.Run("rejects unknown target status", func(t *testing.T) {
		o := createTestOrder(t)
		err := o.Transition(shared.RoleAdmin, Status("BOGUS"))
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "VALIDATION_ERROR", derr.Code)
	})

	t.Run("rejects unknown actor role", func(t *testing.T) {
		o := createTestOrder(t)
		err := o.Transition(shared.ActorRole("intruder"), StatusConfirmed)
		require.Error(t, err)
	})

	t.Run("publishes OrderStatusChanged on every move", func(t *testing.T) {
		o := createTestOrder(t)
		o.ClearDomainEvents()
		require.NoError(t, o.Transition(shared.RoleAdmin, StatusConfirmed))

		events := o.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*OrderStatusChangedEvent)
		require.True(t, ok)
		assert.Equal(t, StatusPending, event.FromStatus)
		assert.Equal(t, StatusConfirmed, event.ToStatus)
	})

	t.Run("publishes OrderDelivered alongside status change", func(t *testing.T) {
		o := createTestOrder(t)
		advanceTo(t, o, StatusShipped)
		o.ClearDomainEvents()
		require.NoError(t, o.Transition(shared.RoleAdmin, StatusDelivered))

		events := o.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeOrderDelivered, events[0].EventType())
		assert.Equal(t, EventTypeOrderStatusChanged, events[1].EventType())
	})

	t.Run("cancel of a paid order flags refund", func(t *testing.T) {
		o := createTestOrder(t)
		require.NoError(t, o.MarkPaid())
		o.ClearDomainEvents()
		o.SetCancelReason("changed my mind")
		require.NoError(t, o.Transition(shared.RoleCustomer, StatusCancelled))

		assert.Equal(t, PaymentStatusRefundPending, o.PaymentStatus)

		events := o.GetDomainEvents()
		require.Len(t, events, 2)
		cancelled, ok := events[0].(*OrderCancelledEvent)
		require.True(t, ok)
		assert.True(t, cancelled.RefundRequired)
		assert.Equal(t, "changed my mind", cancelled.CancelReason)
	})

	t.Run("timeline is append-only across transitions", func(t *testing.T) {
		o := createTestOrder(t)
		advanceTo(t, o, StatusDelivered)

		statuses := make([]Status, len(o.Timeline))
		for i, entry := range o.Timeline {
			statuses[i] = entry.Status
		}
		assert.Equal(t, []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered}, statuses)
		for i := 1; i < len(o.Timeline); i++ {
			assert.False(t, o.Timeline[i].Timestamp.Before(o.Timeline[i-1].Timestamp))
		}
	})
}

// ============================================
// MarkReturned Tests
// ============================================

func TestOrder_MarkReturned(t *testing.T) {
	t.Run("marks a delivered order returned", func(t *testing.T) {
		o := createTestOrder(t)
		advanceTo(t, o, StatusDelivered)
		o.ClearDomainEvents()

		returnID := uuid.New()
		require.NoError(t, o.MarkReturned(returnID))
		assert.Equal(t, StatusReturned, o.Status)

		events := o.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*OrderReturnedEvent)
		require.True(t, ok)
		assert.Equal(t, returnID, event.ReturnRequestID)
		assert.Equal(t, StatusDelivered, event.FromStatus)
	})

	t.Run("rejects orders not yet delivered", func(t *testing.T) {
		o := createTestOrder(t)
		advanceTo(t, o, StatusShipped)

		err := o.MarkReturned(uuid.New())
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_TRANSITION", derr.Code)
	})
}

// ============================================
// Item seller status Tests
// ============================================

func TestOrder_UpdateItemSellerStatus(t *testing.T) {
	t.Run("advances an item along the chain", func(t *testing.T) {
		o := createTestOrder(t)
		item := addTestItem(t, o, "Widget", 1, 5.00)

		require.NoError(t, o.UpdateItemSellerStatus(item.ID, StatusShipped))
		assert.Equal(t, StatusShipped, o.GetItem(item.ID).SellerStatus)
	})

	t.Run("rejects backward move", func(t *testing.T) {
		o := createTestOrder(t)
		item := addTestItem(t, o, "Widget", 1, 5.00)
		require.NoError(t, o.UpdateItemSellerStatus(item.ID, StatusShipped))

		err := o.UpdateItemSellerStatus(item.ID, StatusConfirmed)
		require.Error(t, err)
	})

	t.Run("rejects off-chain status", func(t *testing.T) {
		o := createTestOrder(t)
		item := addTestItem(t, o, "Widget", 1, 5.00)

		err := o.UpdateItemSellerStatus(item.ID, StatusCancelled)
		require.Error(t, err)
	})

	t.Run("rejects unknown item", func(t *testing.T) {
		o := createTestOrder(t)
		err := o.UpdateItemSellerStatus(uuid.New(), StatusShipped)
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "NOT_FOUND", derr.Code)
	})
}
