package order

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, sellerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByStatus(ctx context.Context, status order.Status, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLockAndEvents(ctx context.Context, o *order.Order, events []shared.DomainEvent) error {
	args := m.Called(ctx, o, events)
	return args.Error(0)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	args := m.Called(ctx, orderNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func testAddress(t *testing.T) valueobject.Address {
	t.Helper()
	address, err := valueobject.NewAddress("Jamie Doe", "555-0101", "1 Main St", "", "Springfield", "IL", "62701", "US")
	require.NoError(t, err)
	return address
}

func deliveredOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder("ORD-1", uuid.New(), testAddress(t))
	require.NoError(t, err)
	_, err = o.AddItem(uuid.New(), "Widget", uuid.New(), decimal.NewFromInt(2), valueobject.NewMoneyUSDFromFloat(9.99))
	require.NoError(t, err)
	require.NoError(t, o.Transition(shared.RoleSeller, order.StatusDelivered))
	o.ClearDomainEvents()
	return o
}

func TestOrderService_Create(t *testing.T) {
	repo := new(MockOrderRepository)
	service := NewOrderService(repo, zap.NewNop())

	repo.On("GenerateOrderNumber", mock.Anything).Return("ORD-20260801-0001", nil)
	repo.On("SaveWithLockAndEvents", mock.Anything, mock.AnythingOfType("*order.Order"), mock.Anything).Return(nil)

	resp, err := service.Create(context.Background(), CreateOrderRequest{
		CustomerID: uuid.New(),
		Items: []CreateOrderItemInput{
			{
				ProductID:   uuid.New(),
				ProductName: "Widget",
				SellerID:    uuid.New(),
				Quantity:    decimal.NewFromInt(3),
				UnitPrice:   decimal.NewFromFloat(9.99),
			},
		},
		ShippingAddress: AddressInput{
			RecipientName: "Jamie Doe",
			Line1:         "1 Main St",
			City:          "Springfield",
			Country:       "US",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "ORD-20260801-0001", resp.OrderNumber)
	assert.Equal(t, order.StatusPending, resp.Status)
	assert.Len(t, resp.Items, 1)
	assert.True(t, decimal.NewFromFloat(29.97).Equal(resp.TotalAmount))
	repo.AssertExpectations(t)
}

func TestOrderService_Create_NoItems(t *testing.T) {
	repo := new(MockOrderRepository)
	service := NewOrderService(repo, zap.NewNop())

	repo.On("GenerateOrderNumber", mock.Anything).Return("ORD-1", nil)
	repo.On("SaveWithLockAndEvents", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// Items with zero quantity are rejected by the aggregate
	_, err := service.Create(context.Background(), CreateOrderRequest{
		CustomerID: uuid.New(),
		Items: []CreateOrderItemInput{
			{ProductID: uuid.New(), ProductName: "Widget", SellerID: uuid.New(), Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(1)},
		},
		ShippingAddress: AddressInput{RecipientName: "Jamie Doe", Line1: "1 Main St", City: "Springfield", Country: "US"},
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
}

func TestOrderService_Transition(t *testing.T) {
	repo := new(MockOrderRepository)
	service := NewOrderService(repo, zap.NewNop())

	o, err := order.NewOrder("ORD-1", uuid.New(), testAddress(t))
	require.NoError(t, err)
	o.ClearDomainEvents()

	repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	repo.On("SaveWithLockAndEvents", mock.Anything, o, mock.Anything).Return(nil)

	resp, err := service.Transition(context.Background(), o.ID, "", TransitionOrderRequest{
		ActorRole:       shared.RoleSeller,
		TargetStatus:    order.StatusConfirmed,
		ExpectedVersion: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, resp.Status)
	repo.AssertExpectations(t)
}

func TestOrderService_Transition_VersionMismatch(t *testing.T) {
	repo := new(MockOrderRepository)
	service := NewOrderService(repo, zap.NewNop())

	o, err := order.NewOrder("ORD-1", uuid.New(), testAddress(t))
	require.NoError(t, err)
	o.Version = 3
	o.ClearDomainEvents()

	repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	_, err = service.Transition(context.Background(), o.ID, "", TransitionOrderRequest{
		ActorRole:       shared.RoleSeller,
		TargetStatus:    order.StatusConfirmed,
		ExpectedVersion: 1,
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONCURRENCY_CONFLICT", domainErr.Code)
	repo.AssertNotCalled(t, "SaveWithLockAndEvents", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_Transition_RoleRejected(t *testing.T) {
	repo := new(MockOrderRepository)
	service := NewOrderService(repo, zap.NewNop())

	o, err := order.NewOrder("ORD-1", uuid.New(), testAddress(t))
	require.NoError(t, err)
	o.ClearDomainEvents()

	repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	_, err = service.Transition(context.Background(), o.ID, "", TransitionOrderRequest{
		ActorRole:       shared.RoleCustomer,
		TargetStatus:    order.StatusConfirmed,
		ExpectedVersion: 1,
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
}

func TestOrderService_Transition_IdempotencyKeyNoOp(t *testing.T) {
	repo := new(MockOrderRepository)
	service := NewOrderService(repo, zap.NewNop())

	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	service.SetIdempotencyStore(store)

	o, err := order.NewOrder("ORD-1", uuid.New(), testAddress(t))
	require.NoError(t, err)
	o.ClearDomainEvents()

	repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	repo.On("SaveWithLockAndEvents", mock.Anything, o, mock.Anything).Return(nil).Once()

	first, err := service.Transition(context.Background(), o.ID, "key-1", TransitionOrderRequest{
		ActorRole:       shared.RoleSeller,
		TargetStatus:    order.StatusConfirmed,
		ExpectedVersion: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, first.Status)

	// Same key again is a no-op returning current state, no second save
	second, err := service.Transition(context.Background(), o.ID, "key-1", TransitionOrderRequest{
		ActorRole:       shared.RoleSeller,
		TargetStatus:    order.StatusConfirmed,
		ExpectedVersion: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, second.Status)
	repo.AssertExpectations(t)
}

func TestOrderService_Transition_NotFound(t *testing.T) {
	repo := new(MockOrderRepository)
	service := NewOrderService(repo, zap.NewNop())

	orderID := uuid.New()
	repo.On("FindByID", mock.Anything, orderID).Return(nil, shared.ErrNotFound)

	_, err := service.Transition(context.Background(), orderID, "", TransitionOrderRequest{
		ActorRole:       shared.RoleSeller,
		TargetStatus:    order.StatusConfirmed,
		ExpectedVersion: 1,
	})

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOrderService_MarkReturned(t *testing.T) {
	repo := new(MockOrderRepository)
	service := NewOrderService(repo, zap.NewNop())

	o := deliveredOrder(t)
	returnRequestID := uuid.New()

	repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	repo.On("SaveWithLockAndEvents", mock.Anything, o, mock.Anything).Return(nil)

	err := service.MarkReturned(context.Background(), o.ID, returnRequestID)

	require.NoError(t, err)
	assert.Equal(t, order.StatusReturned, o.Status)
	repo.AssertExpectations(t)
}

func TestOrderService_MarkReturned_AlreadyReturned(t *testing.T) {
	repo := new(MockOrderRepository)
	service := NewOrderService(repo, zap.NewNop())

	o := deliveredOrder(t)
	require.NoError(t, o.MarkReturned(uuid.New()))
	o.ClearDomainEvents()

	repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	err := service.MarkReturned(context.Background(), o.ID, uuid.New())

	require.NoError(t, err)
	repo.AssertNotCalled(t, "SaveWithLockAndEvents", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_List_ByCustomer(t *testing.T) {
	repo := new(MockOrderRepository)
	service := NewOrderService(repo, zap.NewNop())

	customerID := uuid.New()
	o, err := order.NewOrder("ORD-1", customerID, testAddress(t))
	require.NoError(t, err)

	repo.On("FindByCustomer", mock.Anything, customerID, mock.Anything).Return([]order.Order{*o}, nil)
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)

	items, total, err := service.List(context.Background(), OrderListFilter{CustomerID: &customerID})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "ORD-1", items[0].OrderNumber)
}

func TestOrderService_List_RepositoryError(t *testing.T) {
	repo := new(MockOrderRepository)
	service := NewOrderService(repo, zap.NewNop())

	repo.On("FindAll", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, _, err := service.List(context.Background(), OrderListFilter{})
	assert.Error(t, err)
}
