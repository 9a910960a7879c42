package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	CustomerID      uuid.UUID              `json:"customer_id" binding:"required"`
	Items           []CreateOrderItemInput `json:"items" binding:"required,min=1"`
	ShippingAddress AddressInput           `json:"shipping_address" binding:"required"`
}

// CreateOrderItemInput represents a line item in the create order request
type CreateOrderItemInput struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required,min=1,max=200"`
	SellerID    uuid.UUID       `json:"seller_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// AddressInput represents a shipping address in requests
type AddressInput struct {
	RecipientName string `json:"recipient_name" binding:"required,min=1,max=100"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1" binding:"required,min=1,max=200"`
	Line2         string `json:"line2"`
	City          string `json:"city" binding:"required,min=1,max=100"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country" binding:"required,min=1,max=100"`
}

// TransitionOrderRequest represents a role-scoped status transition.
// ExpectedVersion is the version the caller last read; a mismatch is
// rejected with CONCURRENCY_CONFLICT so stale writers refetch first.
type TransitionOrderRequest struct {
	ActorRole       shared.ActorRole `json:"actor_role" binding:"required"`
	TargetStatus    order.Status     `json:"target_status" binding:"required"`
	ExpectedVersion int              `json:"expected_version" binding:"required,min=1"`
	Reason          string           `json:"reason"`
}

// UpdateItemStatusRequest advances the seller status of a single line item
type UpdateItemStatusRequest struct {
	TargetStatus    order.Status `json:"target_status" binding:"required"`
	ExpectedVersion int          `json:"expected_version" binding:"required,min=1"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Search     string        `form:"search"`
	CustomerID *uuid.UUID    `form:"customer_id"`
	SellerID   *uuid.UUID    `form:"seller_id"`
	Status     *order.Status `form:"status"`
	StartDate  *time.Time    `form:"start_date"`
	EndDate    *time.Time    `form:"end_date"`
	Page       int           `form:"page" binding:"min=0"`
	PageSize   int           `form:"page_size" binding:"min=0,max=100"`
	OrderBy    string        `form:"order_by"`
	OrderDir   string        `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderItemResponse represents a line item in responses
type OrderItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	SellerID     uuid.UUID       `json:"seller_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Amount       decimal.Decimal `json:"amount"`
	SellerStatus order.Status    `json:"seller_status"`
}

// TimelineEntryResponse represents one reached status in the order timeline
type TimelineEntryResponse struct {
	Status    order.Status `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Completed bool         `json:"completed"`
}

// OrderResponse represents the full order in responses
type OrderResponse struct {
	ID                uuid.UUID               `json:"id"`
	OrderNumber       string                  `json:"order_number"`
	CustomerID        uuid.UUID               `json:"customer_id"`
	Items             []OrderItemResponse     `json:"items"`
	Status            order.Status            `json:"status"`
	PaymentStatus     order.PaymentStatus     `json:"payment_status"`
	Timeline          []TimelineEntryResponse `json:"timeline"`
	ShippingAddress   valueobject.Address     `json:"shipping_address"`
	TotalAmount       decimal.Decimal         `json:"total_amount"`
	EstimatedDelivery *time.Time              `json:"estimated_delivery,omitempty"`
	DeliveredAt       *time.Time              `json:"delivered_at,omitempty"`
	CancelledAt       *time.Time              `json:"cancelled_at,omitempty"`
	CancelReason      string                  `json:"cancel_reason,omitempty"`
	Version           int                     `json:"version"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// OrderListItemResponse represents an order in list responses
type OrderListItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	Status      order.Status    `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToOrderResponse converts a domain order to a response DTO
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for idx := range o.Items {
		items = append(items, ToOrderItemResponse(&o.Items[idx]))
	}
	timeline := make([]TimelineEntryResponse, 0, len(o.Timeline))
	for _, entry := range o.Timeline {
		timeline = append(timeline, TimelineEntryResponse{
			Status:    entry.Status,
			Timestamp: entry.Timestamp,
			Completed: entry.Completed,
		})
	}
	return OrderResponse{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		CustomerID:        o.CustomerID,
		Items:             items,
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		Timeline:          timeline,
		ShippingAddress:   o.ShippingAddress,
		TotalAmount:       o.TotalAmount,
		EstimatedDelivery: o.EstimatedDelivery,
		DeliveredAt:       o.DeliveredAt,
		CancelledAt:       o.CancelledAt,
		CancelReason:      o.CancelReason,
		Version:           o.Version,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

// ToOrderItemResponse converts a domain order item to a response DTO
func ToOrderItemResponse(item *order.Item) OrderItemResponse {
	return OrderItemResponse{
		ID:           item.ID,
		ProductID:    item.ProductID,
		ProductName:  item.ProductName,
		SellerID:     item.SellerID,
		Quantity:     item.Quantity,
		UnitPrice:    item.UnitPrice,
		Amount:       item.Amount,
		SellerStatus: item.SellerStatus,
	}
}

// ToOrderListItemResponse converts a domain order to a list item DTO
func ToOrderListItemResponse(o *order.Order) OrderListItemResponse {
	return OrderListItemResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		ItemCount:   o.ItemCount(),
		Version:     o.Version,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// ToOrderListItemResponses converts a slice of domain orders to list item DTOs
func ToOrderListItemResponses(orders []order.Order) []OrderListItemResponse {
	responses := make([]OrderListItemResponse, 0, len(orders))
	for idx := range orders {
		responses = append(responses, ToOrderListItemResponse(&orders[idx]))
	}
	return responses
}

// ToAddress converts an address input to the domain value object
func (in AddressInput) ToAddress() (valueobject.Address, error) {
	return valueobject.NewAddress(in.RecipientName, in.Phone, in.Line1, in.Line2,
		in.City, in.State, in.PostalCode, in.Country)
}
