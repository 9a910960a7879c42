package returns

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/returns"
	"github.com/storefront/backend/internal/domain/shared"
)

// CreateReturnRequest represents a customer request to return order items
type CreateReturnRequest struct {
	CustomerID uuid.UUID   `json:"customer_id" binding:"required"`
	ItemIDs    []uuid.UUID `json:"item_ids" binding:"required,min=1"`
	Reason     string      `json:"reason" binding:"required,min=1,max=500"`
}

// AdvanceReturnRequest moves a return request along its workflow
type AdvanceReturnRequest struct {
	ActorRole       shared.ActorRole `json:"actor_role" binding:"required"`
	TargetStatus    returns.Status   `json:"target_status" binding:"required"`
	ExpectedVersion int              `json:"expected_version" binding:"required,min=1"`
}

// ReturnListFilter represents filter options for the return request list
type ReturnListFilter struct {
	CustomerID *uuid.UUID      `form:"customer_id"`
	Status     *returns.Status `form:"status"`
	Page       int             `form:"page" binding:"min=0"`
	PageSize   int             `form:"page_size" binding:"min=0,max=100"`
	OrderBy    string          `form:"order_by"`
	OrderDir   string          `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ReturnResponse represents a return request in responses
type ReturnResponse struct {
	ID         uuid.UUID      `json:"id"`
	OrderID    uuid.UUID      `json:"order_id"`
	CustomerID uuid.UUID      `json:"customer_id"`
	ItemIDs    []uuid.UUID    `json:"item_ids"`
	Reason     string         `json:"reason"`
	Status     returns.Status `json:"status"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`
	Version    int            `json:"version"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ToReturnResponse converts a domain return request to a response DTO
func ToReturnResponse(r *returns.ReturnRequest) ReturnResponse {
	return ReturnResponse{
		ID:         r.ID,
		OrderID:    r.OrderID,
		CustomerID: r.CustomerID,
		ItemIDs:    r.ItemIDs,
		Reason:     r.Reason,
		Status:     r.Status,
		ResolvedAt: r.ResolvedAt,
		Version:    r.Version,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// ToReturnResponses converts a slice of domain return requests
func ToReturnResponses(requests []returns.ReturnRequest) []ReturnResponse {
	responses := make([]ReturnResponse, 0, len(requests))
	for idx := range requests {
		responses = append(responses, ToReturnResponse(&requests[idx]))
	}
	return responses
}
