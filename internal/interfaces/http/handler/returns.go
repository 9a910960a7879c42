package handler

import (
	"github.com/gin-gonic/gin"
	returnsapp "github.com/storefront/backend/internal/application/returns"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// ReturnHandler handles return workflow API endpoints
type ReturnHandler struct {
	BaseHandler
	returnService *returnsapp.ReturnService
}

// NewReturnHandler creates a new ReturnHandler
func NewReturnHandler(returnService *returnsapp.ReturnService) *ReturnHandler {
	return &ReturnHandler{
		returnService: returnService,
	}
}

// Create handles POST /api/v1/orders/:id/returns
func (h *ReturnHandler) Create(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req returnsapp.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	// customers return their own orders
	if middleware.GetActorRole(c) == shared.RoleCustomer {
		req.CustomerID = middleware.GetIdentityID(c)
	}

	resp, err := h.returnService.Create(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get handles GET /api/v1/returns/:id
func (h *ReturnHandler) Get(c *gin.Context) {
	returnID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid return request ID")
		return
	}

	resp, err := h.returnService.GetByID(c.Request.Context(), returnID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListByOrder handles GET /api/v1/orders/:id/returns
func (h *ReturnHandler) ListByOrder(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	resp, err := h.returnService.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// List handles GET /api/v1/returns
func (h *ReturnHandler) List(c *gin.Context) {
	var filter returnsapp.ReturnListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	identityID := middleware.GetIdentityID(c)
	if middleware.GetActorRole(c) == shared.RoleCustomer {
		filter.CustomerID = &identityID
	}

	items, total, err := h.returnService.List(c.Request.Context(), filter)
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

// Advance handles POST /api/v1/returns/:id/advance
func (h *ReturnHandler) Advance(c *gin.Context) {
	returnID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid return request ID")
		return
	}

	var req returnsapp.AdvanceReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := resolveActorRole(c, &req.ActorRole); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp, err := h.returnService.Advance(c.Request.Context(), returnID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}
