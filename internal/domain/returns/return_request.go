package returns

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Status represents the status of a return request
type Status string

const (
	StatusRequested       Status = "REQUESTED"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusPickupScheduled Status = "PICKUP_SCHEDULED"
	StatusRefunded        Status = "REFUNDED"
	StatusExchanged       Status = "EXCHANGED"
)

// IsValid checks if the status is a valid return Status
func (s Status) IsValid() bool {
	switch s {
	case StatusRequested, StatusApproved, StatusRejected,
		StatusPickupScheduled, StatusRefunded, StatusExchanged:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that close the request
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusRefunded || s == StatusExchanged
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusRequested:
		return target == StatusApproved || target == StatusRejected
	case StatusApproved:
		return target == StatusPickupScheduled
	case StatusPickupScheduled:
		return target == StatusRefunded || target == StatusExchanged
	}
	return false
}

// ReturnRequest represents a return or exchange request for a delivered order.
// At most one non-terminal request may exist per order; the application layer
// enforces that through the repository before creating a new one.
type ReturnRequest struct {
	shared.BaseAggregateRoot
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	ItemIDs    []uuid.UUID
	Reason     string
	Status     Status
	ResolvedAt *time.Time
}

// NewReturnRequest creates a new return request in REQUESTED status.
// Order-level guards (delivered-only, policy window, single active return)
// belong to the application service; this constructor validates its own fields.
func NewReturnRequest(orderID, customerID uuid.UUID, itemIDs []uuid.UUID, reason string) (*ReturnRequest, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Order ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Customer ID cannot be empty")
	}
	if len(itemIDs) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Return must reference at least one item")
	}
	seen := make(map[uuid.UUID]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if id == uuid.Nil {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Item ID cannot be empty")
		}
		if _, dup := seen[id]; dup {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Duplicate item in return request")
		}
		seen[id] = struct{}{}
	}
	if reason == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Return reason cannot be empty")
	}

	r := &ReturnRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		CustomerID:        customerID,
		ItemIDs:           itemIDs,
		Reason:            reason,
		Status:            StatusRequested,
	}

	r.AddDomainEvent(NewReturnRequestedEvent(r))

	return r, nil
}

// Advance moves the request to the target status on behalf of the actor role.
// Customers never advance returns; support and admin decide REQUESTED, and
// sellers handle the physical leg from APPROVED onward. Terminal statuses
// stamp ResolvedAt and raise ReturnCompleted so the order can be marked
// RETURNED for REFUNDED and EXCHANGED outcomes.
func (r *ReturnRequest) Advance(role shared.ActorRole, target Status) error {
	if !role.IsValid() {
		return shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unknown actor role %q", role))
	}
	if !target.IsValid() {
		return shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unknown return status %q", target))
	}
	if !r.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot advance return from %s to %s", r.Status, target))
	}

	switch role {
	case shared.RoleSupport, shared.RoleAdmin:
		// decide and progress any step
	case shared.RoleSeller:
		if r.Status == StatusRequested {
			return shared.NewDomainError("UNAUTHORIZED", "Sellers cannot approve or reject returns")
		}
	default:
		return shared.NewDomainError("UNAUTHORIZED", fmt.Sprintf("Role %s cannot advance returns", role))
	}

	from := r.Status
	now := time.Now()
	r.Status = target
	r.UpdatedAt = now
	if target.IsTerminal() {
		r.ResolvedAt = &now
	}

	r.AddDomainEvent(NewReturnStatusChangedEvent(r, from, target))
	if target.IsTerminal() {
		r.AddDomainEvent(NewReturnCompletedEvent(r))
	}

	return nil
}

// IsActive returns true while the request has not reached a terminal status
func (r *ReturnRequest) IsActive() bool {
	return !r.Status.IsTerminal()
}

// OrderShouldBeReturned reports whether the resolved request ends with the
// goods coming back, which marks the order RETURNED
func (r *ReturnRequest) OrderShouldBeReturned() bool {
	return r.Status == StatusRefunded || r.Status == StatusExchanged
}
