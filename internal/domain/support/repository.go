package support

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Repository defines the interface for support ticket persistence
type Repository interface {
	// FindByID finds a ticket by ID, including its message thread
	FindByID(ctx context.Context, id uuid.UUID) (*Ticket, error)

	// FindByTicketNumber finds a ticket by ticket number
	FindByTicketNumber(ctx context.Context, ticketNumber string) (*Ticket, error)

	// FindAll finds tickets with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Ticket, error)

	// FindByCustomer finds tickets opened by a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Ticket, error)

	// FindByAssignee finds tickets assigned to a staff member
	FindByAssignee(ctx context.Context, assigneeID uuid.UUID, filter shared.Filter) ([]Ticket, error)

	// FindByStatus finds tickets by status
	FindByStatus(ctx context.Context, status Status, filter shared.Filter) ([]Ticket, error)

	// Save creates or updates a ticket
	Save(ctx context.Context, t *Ticket) error

	// SaveWithLock saves with optimistic locking (version check)
	// Message sequence assignment relies on this to serialize concurrent posts
	SaveWithLock(ctx context.Context, t *Ticket) error

	// SaveWithLockAndEvents saves with optimistic locking and persists domain events atomically
	SaveWithLockAndEvents(ctx context.Context, t *Ticket, events []shared.DomainEvent) error

	// Count counts tickets matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// GenerateTicketNumber generates a unique ticket number
	GenerateTicketNumber(ctx context.Context) (string, error)
}
