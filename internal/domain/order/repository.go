package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Repository defines the interface for order persistence
type Repository interface {
	// FindByID finds an order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindAll finds orders with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// FindByCustomer finds orders for a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Order, error)

	// FindBySeller finds orders containing items sold by the given seller
	FindBySeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]Order, error)

	// FindByStatus finds orders by status
	FindByStatus(ctx context.Context, status Status, filter shared.Filter) ([]Order, error)

	// Save creates or updates an order
	Save(ctx context.Context, o *Order) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, o *Order) error

	// SaveWithLockAndEvents saves with optimistic locking and persists domain events atomically
	// Events land in the outbox table in the same transaction as the aggregate,
	// so they are published only after the mutation commits
	SaveWithLockAndEvents(ctx context.Context, o *Order, events []shared.DomainEvent) error

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByCustomer counts orders for a customer
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)

	// ExistsByOrderNumber checks if an order number exists
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	// GenerateOrderNumber generates a unique order number
	GenerateOrderNumber(ctx context.Context) (string, error)
}
