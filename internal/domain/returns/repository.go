package returns

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Repository defines the interface for return request persistence
type Repository interface {
	// FindByID finds a return request by ID
	FindByID(ctx context.Context, id uuid.UUID) (*ReturnRequest, error)

	// FindByOrder finds all return requests for an order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]ReturnRequest, error)

	// FindActiveByOrder finds the non-terminal return request for an order, if any
	// Used to enforce the single-active-return invariant
	FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*ReturnRequest, error)

	// FindByCustomer finds return requests for a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]ReturnRequest, error)

	// FindByStatus finds return requests by status
	FindByStatus(ctx context.Context, status Status, filter shared.Filter) ([]ReturnRequest, error)

	// Save creates or updates a return request
	Save(ctx context.Context, r *ReturnRequest) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, r *ReturnRequest) error

	// SaveWithLockAndEvents saves with optimistic locking and persists domain events atomically
	SaveWithLockAndEvents(ctx context.Context, r *ReturnRequest, events []shared.DomainEvent) error

	// Count counts return requests matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
