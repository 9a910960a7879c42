package returns

import (
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestReturn(t *testing.T) *ReturnRequest {
	r, err := NewReturnRequest(uuid.New(), uuid.New(), []uuid.UUID{uuid.New()}, "damaged on arrival")
	require.NoError(t, err)
	return r
}

// ============================================
// Status Tests
// ============================================

func TestReturnStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     Status
		to       Status
		canTrans bool
	}{
		{StatusRequested, StatusApproved, true},
		{StatusRequested, StatusRejected, true},
		{StatusRequested, StatusPickupScheduled, false},
		{StatusRequested, StatusRefunded, false},
		{StatusApproved, StatusPickupScheduled, true},
		{StatusApproved, StatusRefunded, false},
		{StatusApproved, StatusRejected, false},
		{StatusPickupScheduled, StatusRefunded, true},
		{StatusPickupScheduled, StatusExchanged, true},
		{StatusPickupScheduled, StatusRejected, false},
		// Terminal states
		{StatusRejected, StatusApproved, false},
		{StatusRefunded, StatusExchanged, false},
		{StatusExchanged, StatusRequested, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestReturnStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusRequested.IsTerminal())
	assert.False(t, StatusApproved.IsTerminal())
	assert.False(t, StatusPickupScheduled.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusRefunded.IsTerminal())
	assert.True(t, StatusExchanged.IsTerminal())
}

// ============================================
// NewReturnRequest Tests
// ============================================

func TestNewReturnRequest(t *testing.T) {
	orderID := uuid.New()
	customerID := uuid.New()

	t.Run("creates request with valid inputs", func(t *testing.T) {
		itemIDs := []uuid.UUID{uuid.New(), uuid.New()}
		r, err := NewReturnRequest(orderID, customerID, itemIDs, "wrong size")
		require.NoError(t, err)

		assert.Equal(t, orderID, r.OrderID)
		assert.Equal(t, customerID, r.CustomerID)
		assert.Equal(t, itemIDs, r.ItemIDs)
		assert.Equal(t, StatusRequested, r.Status)
		assert.Nil(t, r.ResolvedAt)
		assert.Equal(t, 1, r.GetVersion())
	})

	t.Run("publishes ReturnRequested event", func(t *testing.T) {
		r := createTestReturn(t)
		events := r.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeReturnRequested, events[0].EventType())
	})

	t.Run("fails without items", func(t *testing.T) {
		_, err := NewReturnRequest(orderID, customerID, nil, "reason")
		require.Error(t, err)
	})

	t.Run("fails with duplicate items", func(t *testing.T) {
		id := uuid.New()
		_, err := NewReturnRequest(orderID, customerID, []uuid.UUID{id, id}, "reason")
		require.Error(t, err)
	})

	t.Run("fails without reason", func(t *testing.T) {
		_, err := NewReturnRequest(orderID, customerID, []uuid.UUID{uuid.New()}, "")
		require.Error(t, err)
	})
}

// ============================================
// Advance Tests
// ============================================

func TestReturnRequest_Advance(t *testing.T) {
	t.Run("support approves then refund completes", func(t *testing.T) {
		r := createTestReturn(t)
		require.NoError(t, r.Advance(shared.RoleSupport, StatusApproved))
		require.NoError(t, r.Advance(shared.RoleSeller, StatusPickupScheduled))
		require.NoError(t, r.Advance(shared.RoleSeller, StatusRefunded))

		assert.Equal(t, StatusRefunded, r.Status)
		assert.NotNil(t, r.ResolvedAt)
		assert.False(t, r.IsActive())
		assert.True(t, r.OrderShouldBeReturned())
	})

	t.Run("rejection resolves without returning the order", func(t *testing.T) {
		r := createTestReturn(t)
		require.NoError(t, r.Advance(shared.RoleAdmin, StatusRejected))

		assert.Equal(t, StatusRejected, r.Status)
		assert.NotNil(t, r.ResolvedAt)
		assert.False(t, r.OrderShouldBeReturned())
	})

	t.Run("exchange outcome returns the order", func(t *testing.T) {
		r := createTestReturn(t)
		require.NoError(t, r.Advance(shared.RoleAdmin, StatusApproved))
		require.NoError(t, r.Advance(shared.RoleAdmin, StatusPickupScheduled))
		require.NoError(t, r.Advance(shared.RoleAdmin, StatusExchanged))
		assert.True(t, r.OrderShouldBeReturned())
	})

	t.Run("seller cannot decide a requested return", func(t *testing.T) {
		r := createTestReturn(t)
		err := r.Advance(shared.RoleSeller, StatusApproved)
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "UNAUTHORIZED", derr.Code)
	})

	t.Run("customer cannot advance", func(t *testing.T) {
		r := createTestReturn(t)
		err := r.Advance(shared.RoleCustomer, StatusApproved)
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "UNAUTHORIZED", derr.Code)
	})

	t.Run("invalid edge is rejected", func(t *testing.T) {
		r := createTestReturn(t)
		err := r.Advance(shared.RoleAdmin, StatusRefunded)
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_TRANSITION", derr.Code)
	})

	t.Run("terminal status admits nothing", func(t *testing.T) {
		r := createTestReturn(t)
		require.NoError(t, r.Advance(shared.RoleAdmin, StatusRejected))
		err := r.Advance(shared.RoleAdmin, StatusApproved)
		require.Error(t, err)
	})

	t.Run("publishes status change and completion events", func(t *testing.T) {
		r := createTestReturn(t)
		require.NoError(t, r.Advance(shared.RoleAdmin, StatusApproved))
		require.NoError(t, r.Advance(shared.RoleAdmin, StatusPickupScheduled))
		r.ClearDomainEvents()

		require.NoError(t, r.Advance(shared.RoleAdmin, StatusRefunded))
		events := r.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeReturnStatusChanged, events[0].EventType())

		completed, ok := events[1].(*ReturnCompletedEvent)
		require.True(t, ok)
		assert.True(t, completed.OrderReturned)
		assert.Equal(t, StatusRefunded, completed.FinalStatus)
	})
}
