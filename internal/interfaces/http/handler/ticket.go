package handler

import (
	"github.com/gin-gonic/gin"
	supportapp "github.com/storefront/backend/internal/application/support"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// TicketHandler handles support ticket API endpoints
type TicketHandler struct {
	BaseHandler
	ticketService *supportapp.TicketService
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(ticketService *supportapp.TicketService) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
	}
}

// Create handles POST /api/v1/tickets
func (h *TicketHandler) Create(c *gin.Context) {
	var req supportapp.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if middleware.GetActorRole(c) == shared.RoleCustomer {
		req.CustomerID = middleware.GetIdentityID(c)
	}

	resp, err := h.ticketService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get handles GET /api/v1/tickets/:id
// The response carries the full message thread in sequence order.
func (h *TicketHandler) Get(c *gin.Context) {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid ticket ID")
		return
	}

	resp, err := h.ticketService.GetByID(c.Request.Context(), ticketID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// List handles GET /api/v1/tickets
func (h *TicketHandler) List(c *gin.Context) {
	var filter supportapp.TicketListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	identityID := middleware.GetIdentityID(c)
	if middleware.GetActorRole(c) == shared.RoleCustomer {
		filter.CustomerID = &identityID
	}

	items, total, err := h.ticketService.List(c.Request.Context(), filter)
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

// PostMessage handles POST /api/v1/tickets/:id/messages
func (h *TicketHandler) PostMessage(c *gin.Context) {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid ticket ID")
		return
	}

	var req supportapp.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	// the sender is always the authenticated identity
	req.SenderID = middleware.GetIdentityID(c)
	if err := resolveActorRole(c, &req.SenderRole); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp, err := h.ticketService.PostMessage(c.Request.Context(), ticketID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// Assign handles POST /api/v1/tickets/:id/assign
func (h *TicketHandler) Assign(c *gin.Context) {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid ticket ID")
		return
	}

	var req supportapp.AssignTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.ticketService.Assign(c.Request.Context(), ticketID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Resolve handles POST /api/v1/tickets/:id/resolve
func (h *TicketHandler) Resolve(c *gin.Context) {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid ticket ID")
		return
	}

	req := supportapp.ResolveTicketRequest{ActorRole: middleware.GetActorRole(c)}

	resp, err := h.ticketService.Resolve(c.Request.Context(), ticketID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}
