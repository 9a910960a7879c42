package support

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/support"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockTicketRepository is a mock implementation of support.Repository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) FindByID(ctx context.Context, id uuid.UUID) (*support.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*support.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindByTicketNumber(ctx context.Context, ticketNumber string) (*support.Ticket, error) {
	args := m.Called(ctx, ticketNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*support.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindAll(ctx context.Context, filter shared.Filter) ([]support.Ticket, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]support.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]support.Ticket, error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]support.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindByAssignee(ctx context.Context, assigneeID uuid.UUID, filter shared.Filter) ([]support.Ticket, error) {
	args := m.Called(ctx, assigneeID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]support.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindByStatus(ctx context.Context, status support.Status, filter shared.Filter) ([]support.Ticket, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]support.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Save(ctx context.Context, t *support.Ticket) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTicketRepository) SaveWithLock(ctx context.Context, t *support.Ticket) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTicketRepository) SaveWithLockAndEvents(ctx context.Context, t *support.Ticket, events []shared.DomainEvent) error {
	args := m.Called(ctx, t, events)
	return args.Error(0)
}

func (m *MockTicketRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketRepository) GenerateTicketNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func newTicket(t *testing.T) *support.Ticket {
	t.Helper()
	ticket, err := support.NewTicket("TKT-1", uuid.New(), "Order never arrived", "It has been two weeks")
	require.NoError(t, err)
	ticket.ClearDomainEvents()
	return ticket
}

func TestTicketService_Create(t *testing.T) {
	repo := new(MockTicketRepository)
	service := NewTicketService(repo, zap.NewNop())

	repo.On("GenerateTicketNumber", mock.Anything).Return("TKT-20260801-0001", nil)
	repo.On("SaveWithLockAndEvents", mock.Anything, mock.AnythingOfType("*support.Ticket"), mock.Anything).Return(nil)

	resp, err := service.Create(context.Background(), CreateTicketRequest{
		CustomerID:  uuid.New(),
		Subject:     "Order never arrived",
		Description: "It has been two weeks",
	})

	require.NoError(t, err)
	assert.Equal(t, "TKT-20260801-0001", resp.TicketNumber)
	assert.Equal(t, support.StatusOpen, resp.Status)
	repo.AssertExpectations(t)
}

func TestTicketService_Create_EmptySubject(t *testing.T) {
	repo := new(MockTicketRepository)
	service := NewTicketService(repo, zap.NewNop())

	repo.On("GenerateTicketNumber", mock.Anything).Return("TKT-1", nil)

	_, err := service.Create(context.Background(), CreateTicketRequest{
		CustomerID: uuid.New(),
		Subject:    "",
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
}

func TestTicketService_PostMessage(t *testing.T) {
	repo := new(MockTicketRepository)
	service := NewTicketService(repo, zap.NewNop())

	ticket := newTicket(t)
	repo.On("FindByID", mock.Anything, ticket.ID).Return(ticket, nil)
	repo.On("SaveWithLockAndEvents", mock.Anything, ticket, mock.Anything).Return(nil)

	resp, err := service.PostMessage(context.Background(), ticket.ID, PostMessageRequest{
		SenderID:   ticket.CustomerID,
		SenderRole: shared.RoleCustomer,
		Body:       "Any news?",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Sequence)
	assert.Equal(t, "Any news?", resp.Body)
	repo.AssertExpectations(t)
}

func TestTicketService_PostMessage_StaffMovesTicketInProgress(t *testing.T) {
	repo := new(MockTicketRepository)
	service := NewTicketService(repo, zap.NewNop())

	ticket := newTicket(t)
	repo.On("FindByID", mock.Anything, ticket.ID).Return(ticket, nil)
	repo.On("SaveWithLockAndEvents", mock.Anything, ticket, mock.Anything).Return(nil)

	_, err := service.PostMessage(context.Background(), ticket.ID, PostMessageRequest{
		SenderID:   uuid.New(),
		SenderRole: shared.RoleSupport,
		Body:       "Looking into it",
	})

	require.NoError(t, err)
	assert.Equal(t, support.StatusInProgress, ticket.Status)
}

func TestTicketService_PostMessage_RetriesOnConflict(t *testing.T) {
	repo := new(MockTicketRepository)
	service := NewTicketService(repo, zap.NewNop())

	ticket := newTicket(t)
	repo.On("FindByID", mock.Anything, ticket.ID).Return(ticket, nil)
	repo.On("SaveWithLockAndEvents", mock.Anything, ticket, mock.Anything).
		Return(shared.ErrConcurrencyConflict).Once()
	repo.On("SaveWithLockAndEvents", mock.Anything, ticket, mock.Anything).
		Return(nil).Once()

	resp, err := service.PostMessage(context.Background(), ticket.ID, PostMessageRequest{
		SenderID:   ticket.CustomerID,
		SenderRole: shared.RoleCustomer,
		Body:       "Any news?",
	})

	require.NoError(t, err)
	// the failed attempt consumed a sequence on the stale copy, the retry
	// refetched and assigned the next one
	assert.Positive(t, resp.Sequence)
	repo.AssertExpectations(t)
}

func TestTicketService_PostMessage_ResolvedTicketRejected(t *testing.T) {
	repo := new(MockTicketRepository)
	service := NewTicketService(repo, zap.NewNop())

	ticket := newTicket(t)
	require.NoError(t, ticket.Resolve(shared.RoleSupport))
	ticket.ClearDomainEvents()

	repo.On("FindByID", mock.Anything, ticket.ID).Return(ticket, nil)

	_, err := service.PostMessage(context.Background(), ticket.ID, PostMessageRequest{
		SenderID:   ticket.CustomerID,
		SenderRole: shared.RoleCustomer,
		Body:       "Reopening?",
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
}

func TestTicketService_Resolve(t *testing.T) {
	repo := new(MockTicketRepository)
	service := NewTicketService(repo, zap.NewNop())

	ticket := newTicket(t)
	repo.On("FindByID", mock.Anything, ticket.ID).Return(ticket, nil)
	repo.On("SaveWithLockAndEvents", mock.Anything, ticket, mock.Anything).Return(nil)

	resp, err := service.Resolve(context.Background(), ticket.ID, ResolveTicketRequest{
		ActorRole: shared.RoleSupport,
	})

	require.NoError(t, err)
	assert.Equal(t, support.StatusResolved, resp.Status)
	assert.NotNil(t, resp.ResolvedAt)
}

func TestTicketService_Resolve_CustomerRejected(t *testing.T) {
	repo := new(MockTicketRepository)
	service := NewTicketService(repo, zap.NewNop())

	ticket := newTicket(t)
	repo.On("FindByID", mock.Anything, ticket.ID).Return(ticket, nil)

	_, err := service.Resolve(context.Background(), ticket.ID, ResolveTicketRequest{
		ActorRole: shared.RoleCustomer,
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
}

func TestTicketService_Assign(t *testing.T) {
	repo := new(MockTicketRepository)
	service := NewTicketService(repo, zap.NewNop())

	ticket := newTicket(t)
	assigneeID := uuid.New()
	repo.On("FindByID", mock.Anything, ticket.ID).Return(ticket, nil)
	repo.On("SaveWithLockAndEvents", mock.Anything, ticket, mock.Anything).Return(nil)

	resp, err := service.Assign(context.Background(), ticket.ID, AssignTicketRequest{AssigneeID: assigneeID})

	require.NoError(t, err)
	require.NotNil(t, resp.AssigneeID)
	assert.Equal(t, assigneeID, *resp.AssigneeID)
	assert.Equal(t, support.StatusInProgress, resp.Status)
}
