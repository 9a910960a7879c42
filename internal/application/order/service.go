package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// OrderService handles order lifecycle operations
type OrderService struct {
	orderRepo        order.Repository
	idempotencyStore shared.IdempotencyStore
	idempotencyTTL   time.Duration
	logger           *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo order.Repository, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		idempotencyTTL: shared.DefaultIdempotencyConfig().TTL,
		logger:         logger,
	}
}

// SetIdempotencyStore enables Idempotency-Key handling on transitions.
// Without a store, repeated keys are processed like any other request.
func (s *OrderService) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotencyStore = store
}

// Create creates a new order in PENDING status
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	orderNumber, err := s.orderRepo.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	address, err := req.ShippingAddress.ToAddress()
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", err.Error())
	}

	o, err := order.NewOrder(orderNumber, req.CustomerID, address)
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		unitPrice := valueobject.NewMoneyUSD(item.UnitPrice)
		if _, err := o.AddItem(item.ProductID, item.ProductName, item.SellerID, item.Quantity, unitPrice); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.SaveWithLockAndEvents(ctx, o, o.GetDomainEvents()); err != nil {
		return nil, err
	}
	o.ClearDomainEvents()

	s.logger.Info("order created",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("customer_id", o.CustomerID.String()),
	)

	response := ToOrderResponse(o)
	return &response, nil
}

// GetByID retrieves an order by ID
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// GetByOrderNumber retrieves an order by order number
func (s *OrderService) GetByOrderNumber(ctx context.Context, orderNumber string) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// List retrieves orders with filtering and pagination
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	domainFilter := buildFilter(filter)

	var (
		orders []order.Order
		err    error
	)
	switch {
	case filter.CustomerID != nil:
		orders, err = s.orderRepo.FindByCustomer(ctx, *filter.CustomerID, domainFilter)
	case filter.SellerID != nil:
		orders, err = s.orderRepo.FindBySeller(ctx, *filter.SellerID, domainFilter)
	case filter.Status != nil:
		orders, err = s.orderRepo.FindByStatus(ctx, *filter.Status, domainFilter)
	default:
		orders, err = s.orderRepo.FindAll(ctx, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}

	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToOrderListItemResponses(orders), total, nil
}

// Transition moves an order to a new status on behalf of an actor role.
// The caller's expected version must match the stored version, otherwise
// the request is rejected with CONCURRENCY_CONFLICT and the caller
// refetches. A repeated Idempotency-Key is a no-op returning the current
// order state.
func (s *OrderService) Transition(ctx context.Context, orderID uuid.UUID, idempotencyKey string, req TransitionOrderRequest) (*OrderResponse, error) {
	if idempotencyKey != "" && s.idempotencyStore != nil {
		processed, err := s.idempotencyStore.IsProcessed(ctx, s.transitionKey(orderID, idempotencyKey))
		if err != nil {
			s.logger.Warn("idempotency lookup failed, processing request",
				zap.String("order_id", orderID.String()),
				zap.Error(err),
			)
		} else if processed {
			return s.GetByID(ctx, orderID)
		}
	}

	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.Version != req.ExpectedVersion {
		return nil, shared.NewDomainError("CONCURRENCY_CONFLICT",
			fmt.Sprintf("Order version is %d, expected %d", o.Version, req.ExpectedVersion))
	}

	if req.TargetStatus == order.StatusCancelled && req.Reason != "" {
		o.SetCancelReason(req.Reason)
	}

	if err := o.Transition(req.ActorRole, req.TargetStatus); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLockAndEvents(ctx, o, o.GetDomainEvents()); err != nil {
		return nil, err
	}
	o.ClearDomainEvents()

	if idempotencyKey != "" && s.idempotencyStore != nil {
		if _, err := s.idempotencyStore.MarkProcessed(ctx, s.transitionKey(orderID, idempotencyKey), s.idempotencyTTL); err != nil {
			s.logger.Warn("failed to record idempotency key",
				zap.String("order_id", orderID.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("order transitioned",
		zap.String("order_id", o.ID.String()),
		zap.String("status", o.Status.String()),
		zap.String("actor_role", req.ActorRole.String()),
		zap.Int("version", o.Version),
	)

	response := ToOrderResponse(o)
	return &response, nil
}

// UpdateItemStatus advances the seller-side status of one line item
func (s *OrderService) UpdateItemStatus(ctx context.Context, orderID, itemID uuid.UUID, req UpdateItemStatusRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.Version != req.ExpectedVersion {
		return nil, shared.NewDomainError("CONCURRENCY_CONFLICT",
			fmt.Sprintf("Order version is %d, expected %d", o.Version, req.ExpectedVersion))
	}

	if err := o.UpdateItemSellerStatus(itemID, req.TargetStatus); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// MarkReturned applies the return workflow outcome to the order.
// Called from the return completed handler, never from the HTTP surface.
func (s *OrderService) MarkReturned(ctx context.Context, orderID, returnRequestID uuid.UUID) error {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	if o.IsReturned() {
		// already applied, the handler retried
		return nil
	}

	if err := o.MarkReturned(returnRequestID); err != nil {
		return err
	}

	if err := s.orderRepo.SaveWithLockAndEvents(ctx, o, o.GetDomainEvents()); err != nil {
		return err
	}
	o.ClearDomainEvents()

	s.logger.Info("order marked returned",
		zap.String("order_id", o.ID.String()),
		zap.String("return_request_id", returnRequestID.String()),
	)

	return nil
}

func (s *OrderService) transitionKey(orderID uuid.UUID, idempotencyKey string) string {
	return fmt.Sprintf("order-transition:%s:%s", orderID, idempotencyKey)
}

func buildFilter(filter OrderListFilter) shared.Filter {
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
	domainFilter.Search = filter.Search
	if filter.Status != nil {
		domainFilter.Filters["status"] = filter.Status.String()
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}
	return domainFilter
}
