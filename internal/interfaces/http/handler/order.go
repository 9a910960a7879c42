package handler

import (
	"github.com/gin-gonic/gin"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// IdempotencyKeyHeader makes transition requests safely repeatable
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler handles order-related API endpoints
type OrderHandler struct {
	BaseHandler
	orderService *orderapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderapp.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// Create handles POST /api/v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req orderapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	// customers always order for themselves
	if middleware.GetActorRole(c) == shared.RoleCustomer {
		req.CustomerID = middleware.GetIdentityID(c)
	}

	resp, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get handles GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	resp, err := h.orderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// List handles GET /api/v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	var filter orderapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	// non-staff callers only see their own side of the ledger
	identityID := middleware.GetIdentityID(c)
	switch middleware.GetActorRole(c) {
	case shared.RoleCustomer:
		filter.CustomerID = &identityID
	case shared.RoleSeller:
		filter.SellerID = &identityID
	}

	items, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, items, total, page, pageSize)
}

// Transition handles POST /api/v1/orders/:id/transition
// Repeating the request with the same Idempotency-Key header is a no-op
// returning the current order state.
func (h *OrderHandler) Transition(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req orderapp.TransitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := resolveActorRole(c, &req.ActorRole); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	idempotencyKey := c.GetHeader(IdempotencyKeyHeader)

	resp, err := h.orderService.Transition(c.Request.Context(), orderID, idempotencyKey, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// UpdateItemStatus handles POST /api/v1/orders/:id/items/:item_id/status
func (h *OrderHandler) UpdateItemStatus(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	itemID, err := parseIDParam(c, "item_id")
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	var req orderapp.UpdateItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orderService.UpdateItemStatus(c.Request.Context(), orderID, itemID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// resolveActorRole fills the request role from the token when omitted and
// rejects a body role that contradicts the token. Admin tokens may act as
// any role.
func resolveActorRole(c *gin.Context, role *shared.ActorRole) error {
	tokenRole := middleware.GetActorRole(c)
	if *role == "" {
		*role = tokenRole
		return nil
	}
	if *role != tokenRole && tokenRole != shared.RoleAdmin {
		return shared.NewDomainError("UNAUTHORIZED", "Requested actor role does not match the token")
	}
	return nil
}
