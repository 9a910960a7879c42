package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	orderdomain "github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/returns"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReturnService handles the return and exchange workflow
type ReturnService struct {
	returnRepo returns.Repository
	orderRepo  orderdomain.Repository
	windowDays int
	logger     *zap.Logger
}

// NewReturnService creates a new ReturnService.
// windowDays is the policy window after delivery during which returns
// may be requested.
func NewReturnService(returnRepo returns.Repository, orderRepo orderdomain.Repository, windowDays int, logger *zap.Logger) *ReturnService {
	return &ReturnService{
		returnRepo: returnRepo,
		orderRepo:  orderRepo,
		windowDays: windowDays,
		logger:     logger,
	}
}

// Create opens a return request for a delivered order.
// Guards applied in order: the order must exist and belong to the
// requesting customer, it must be DELIVERED, the request must fall inside
// the policy window, the items must belong to the order, and no other
// active return may exist for it.
func (s *ReturnService) Create(ctx context.Context, orderID uuid.UUID, req CreateReturnRequest) (*ReturnResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.CustomerID != req.CustomerID {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Order belongs to a different customer")
	}
	if !o.IsDelivered() {
		return nil, shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Returns are only accepted for delivered orders, order is %s", o.Status))
	}
	if o.DeliveredAt != nil && s.windowDays > 0 {
		deadline := o.DeliveredAt.AddDate(0, 0, s.windowDays)
		if time.Now().After(deadline) {
			return nil, shared.NewDomainError("POLICY_VIOLATION",
				fmt.Sprintf("Return window of %d days has elapsed", s.windowDays))
		}
	}
	for _, itemID := range req.ItemIDs {
		if !o.HasItem(itemID) {
			return nil, shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("Item %s does not belong to the order", itemID))
		}
	}

	active, err := s.returnRepo.FindActiveByOrder(ctx, orderID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if active != nil {
		return nil, shared.NewDomainError("CONCURRENCY_CONFLICT", "Order already has an active return request")
	}

	r, err := returns.NewReturnRequest(orderID, req.CustomerID, req.ItemIDs, req.Reason)
	if err != nil {
		return nil, err
	}

	if err := s.returnRepo.SaveWithLockAndEvents(ctx, r, r.GetDomainEvents()); err != nil {
		return nil, err
	}
	r.ClearDomainEvents()

	s.logger.Info("return request created",
		zap.String("return_request_id", r.ID.String()),
		zap.String("order_id", orderID.String()),
		zap.Int("item_count", len(req.ItemIDs)),
	)

	response := ToReturnResponse(r)
	return &response, nil
}

// GetByID retrieves a return request by ID
func (s *ReturnService) GetByID(ctx context.Context, returnID uuid.UUID) (*ReturnResponse, error) {
	r, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	response := ToReturnResponse(r)
	return &response, nil
}

// ListByOrder retrieves all return requests for an order
func (s *ReturnService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]ReturnResponse, error) {
	requests, err := s.returnRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToReturnResponses(requests), nil
}

// List retrieves return requests with filtering and pagination
func (s *ReturnService) List(ctx context.Context, filter ReturnListFilter) ([]ReturnResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}

	var (
		requests []returns.ReturnRequest
		err      error
	)
	switch {
	case filter.CustomerID != nil:
		requests, err = s.returnRepo.FindByCustomer(ctx, *filter.CustomerID, domainFilter)
	case filter.Status != nil:
		requests, err = s.returnRepo.FindByStatus(ctx, *filter.Status, domainFilter)
	default:
		return nil, 0, shared.NewDomainError("VALIDATION_ERROR", "List requires a customer or status filter")
	}
	if err != nil {
		return nil, 0, err
	}

	total, err := s.returnRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToReturnResponses(requests), total, nil
}

// Advance moves a return request along its workflow on behalf of an
// actor role. Terminal outcomes raise ReturnCompleted; the order is
// marked RETURNED asynchronously by the completed handler.
func (s *ReturnService) Advance(ctx context.Context, returnID uuid.UUID, req AdvanceReturnRequest) (*ReturnResponse, error) {
	r, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}

	if r.Version != req.ExpectedVersion {
		return nil, shared.NewDomainError("CONCURRENCY_CONFLICT",
			fmt.Sprintf("Return request version is %d, expected %d", r.Version, req.ExpectedVersion))
	}

	if err := r.Advance(req.ActorRole, req.TargetStatus); err != nil {
		return nil, err
	}

	if err := s.returnRepo.SaveWithLockAndEvents(ctx, r, r.GetDomainEvents()); err != nil {
		return nil, err
	}
	r.ClearDomainEvents()

	s.logger.Info("return request advanced",
		zap.String("return_request_id", r.ID.String()),
		zap.String("status", r.Status.String()),
		zap.String("actor_role", req.ActorRole.String()),
	)

	response := ToReturnResponse(r)
	return &response, nil
}
