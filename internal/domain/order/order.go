package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Status represents the status of an order
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusReturned   Status = "RETURNED"
)

// fulfillmentRank gives the position of a status along the fulfillment chain.
// Statuses off the chain (CANCELLED, RETURNED) return -1.
func (s Status) fulfillmentRank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusConfirmed:
		return 1
	case StatusProcessing:
		return 2
	case StatusShipped:
		return 3
	case StatusDelivered:
		return 4
	}
	return -1
}

// IsValid checks if the status is a valid order Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that admit no further transitions
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusReturned
}

// CanTransitionTo checks if the status can transition to the target status.
// Forward moves along the fulfillment chain may skip intermediate steps.
// Cancellation is only allowed before shipment. RETURNED is reachable only
// from DELIVERED and only through the return workflow.
func (s Status) CanTransitionTo(target Status) bool {
	if !target.IsValid() || s == target {
		return false
	}
	switch target {
	case StatusCancelled:
		return s == StatusPending || s == StatusConfirmed || s == StatusProcessing
	case StatusReturned:
		return s == StatusDelivered
	default:
		from, to := s.fulfillmentRank(), target.fulfillmentRank()
		return from >= 0 && to > from
	}
}

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusPaid          PaymentStatus = "PAID"
	PaymentStatusRefundPending PaymentStatus = "REFUND_PENDING"
	PaymentStatusRefunded      PaymentStatus = "REFUNDED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefundPending, PaymentStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// Item represents a line item in an order
// SellerStatus tracks per-seller fulfillment independently of the order status
type Item struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ProductID    uuid.UUID
	ProductName  string
	SellerID     uuid.UUID
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	Amount       decimal.Decimal
	SellerStatus Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewItem creates a new order item
func NewItem(orderID, productID uuid.UUID, productName string, sellerID uuid.UUID, quantity decimal.Decimal, unitPrice valueobject.Money) (*Item, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Product name cannot be empty")
	}
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Seller ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Quantity must be positive")
	}
	if unitPrice.Amount().IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unit price cannot be negative")
	}

	now := time.Now()
	return &Item{
		ID:           uuid.New(),
		OrderID:      orderID,
		ProductID:    productID,
		ProductName:  productName,
		SellerID:     sellerID,
		Quantity:     quantity,
		UnitPrice:    unitPrice.Amount(),
		Amount:       quantity.Mul(unitPrice.Amount()),
		SellerStatus: StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetAmountMoney returns the line amount as Money value object
func (i *Item) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.Amount)
}

// TimelineEntry records a status the order has reached.
// The timeline is append-only; entries are never rewritten or removed.
type TimelineEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Completed bool      `json:"completed"`
}

// Order represents an order aggregate root.
// It owns the role-scoped status machine, the append-only timeline and the
// optimistic version used for concurrency control. Orders are never deleted.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber       string
	CustomerID        uuid.UUID
	Items             []Item
	Status            Status
	PaymentStatus     PaymentStatus
	Timeline          []TimelineEntry
	ShippingAddress   valueobject.Address
	TotalAmount       decimal.Decimal
	EstimatedDelivery *time.Time
	DeliveredAt       *time.Time
	CancelledAt       *time.Time
	CancelReason      string
}

// NewOrder creates a new order in PENDING status
func NewOrder(orderNumber string, customerID uuid.UUID, address valueobject.Address) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Order number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Customer ID cannot be empty")
	}
	if err := address.Validate(); err != nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", err.Error())
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerID:        customerID,
		Items:             make([]Item, 0),
		Status:            StatusPending,
		PaymentStatus:     PaymentStatusPending,
		ShippingAddress:   address,
		TotalAmount:       decimal.Zero,
	}
	order.Timeline = []TimelineEntry{{Status: StatusPending, Timestamp: order.CreatedAt, Completed: true}}

	order.AddDomainEvent(NewOrderCreatedEvent(order))

	return order, nil
}

// AddItem adds a new item to the order
// Only allowed in PENDING status
func (o *Order) AddItem(productID uuid.UUID, productName string, sellerID uuid.UUID, quantity decimal.Decimal, unitPrice valueobject.Money) (*Item, error) {
	if o.Status != StatusPending {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Cannot add items to an order past PENDING")
	}

	for _, item := range o.Items {
		if item.ProductID == productID && item.SellerID == sellerID {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Product already exists in order")
		}
	}

	item, err := NewItem(o.ID, productID, productName, sellerID, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotal()
	o.UpdatedAt = time.Now()

	return item, nil
}

// SetEstimatedDelivery sets the estimated delivery date
func (o *Order) SetEstimatedDelivery(t time.Time) {
	o.EstimatedDelivery = &t
	o.UpdatedAt = time.Now()
}

// MarkPaid marks the order payment as settled
func (o *Order) MarkPaid() error {
	if o.PaymentStatus != PaymentStatusPending {
		return shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Cannot mark payment paid from %s", o.PaymentStatus))
	}
	o.PaymentStatus = PaymentStatusPaid
	o.UpdatedAt = time.Now()
	return nil
}

// Transition moves the order to the target status on behalf of the given
// actor role. The status graph is checked first, then the role scope:
//   - customer: only CANCELLED, and only before shipment
//   - seller: only forward moves along the fulfillment chain
//   - admin: any edge the status graph allows
//
// RETURNED is never reachable here; it is applied by the return workflow
// through MarkReturned.
func (o *Order) Transition(role shared.ActorRole, target Status) error {
	if !role.IsValid() {
		return shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unknown actor role %q", role))
	}
	if !target.IsValid() {
		return shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unknown order status %q", target))
	}
	if target == StatusReturned {
		return shared.NewDomainError("INVALID_TRANSITION", "RETURNED is only reachable through the return workflow")
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}

	switch role {
	case shared.RoleCustomer:
		if target != StatusCancelled {
			return shared.NewDomainError("UNAUTHORIZED", "Customers may only cancel orders")
		}
	case shared.RoleSeller:
		if target == StatusCancelled {
			return shared.NewDomainError("UNAUTHORIZED", "Sellers cannot cancel orders")
		}
	case shared.RoleAdmin:
		// any valid edge
	default:
		return shared.NewDomainError("UNAUTHORIZED", fmt.Sprintf("Role %s cannot change order status", role))
	}

	o.applyStatus(target)
	return nil
}

// MarkReturned marks a delivered order as returned.
// Called by the return workflow when a return reaches a terminal
// refunded or exchanged state, never by a direct status change.
func (o *Order) MarkReturned(returnRequestID uuid.UUID) error {
	if !o.Status.CanTransitionTo(StatusReturned) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot mark order returned from %s", o.Status))
	}

	from := o.Status
	now := time.Now()
	o.Status = StatusReturned
	o.Timeline = append(o.Timeline, TimelineEntry{Status: StatusReturned, Timestamp: now, Completed: true})
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderReturnedEvent(o, from, returnRequestID))

	return nil
}

// UpdateItemSellerStatus advances the seller-side fulfillment status of a
// single line item. Used by sellers shipping their own items independently.
func (o *Order) UpdateItemSellerStatus(itemID uuid.UUID, target Status) error {
	if target.fulfillmentRank() < 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Seller status must be on the fulfillment chain")
	}
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			if !o.Items[idx].SellerStatus.CanTransitionTo(target) {
				return shared.NewDomainError("INVALID_TRANSITION",
					fmt.Sprintf("Cannot move item from %s to %s", o.Items[idx].SellerStatus, target))
			}
			o.Items[idx].SellerStatus = target
			o.Items[idx].UpdatedAt = time.Now()
			o.UpdatedAt = o.Items[idx].UpdatedAt
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Order item not found")
}

// applyStatus commits a validated transition: appends the timeline entry,
// stamps the status-specific timestamps and raises the domain events.
func (o *Order) applyStatus(target Status) {
	from := o.Status
	now := time.Now()
	o.Status = target
	o.Timeline = append(o.Timeline, TimelineEntry{Status: target, Timestamp: now, Completed: true})
	o.UpdatedAt = now

	switch target {
	case StatusDelivered:
		o.DeliveredAt = &now
		o.AddDomainEvent(NewOrderDeliveredEvent(o))
	case StatusCancelled:
		o.CancelledAt = &now
		if o.PaymentStatus == PaymentStatusPaid {
			o.PaymentStatus = PaymentStatusRefundPending
		}
		o.AddDomainEvent(NewOrderCancelledEvent(o, from))
	}

	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, target))
}

// SetCancelReason records why the order was cancelled
func (o *Order) SetCancelReason(reason string) {
	o.CancelReason = reason
	o.UpdatedAt = time.Now()
}

// recalculateTotal recalculates the order total from its items
func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount)
	}
	o.TotalAmount = total
}

// GetTotalAmountMoney returns the order total as Money
func (o *Order) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.TotalAmount)
}

// ItemCount returns the number of items in the order
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// GetItem returns an item by its ID
func (o *Order) GetItem(itemID uuid.UUID) *Item {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// HasItem reports whether the order contains the given item ID
func (o *Order) HasItem(itemID uuid.UUID) bool {
	return o.GetItem(itemID) != nil
}

// IsDelivered returns true if the order has been delivered
func (o *Order) IsDelivered() bool {
	return o.Status == StatusDelivered
}

// IsCancelled returns true if the order was cancelled
func (o *Order) IsCancelled() bool {
	return o.Status == StatusCancelled
}

// IsReturned returns true if the order was returned
func (o *Order) IsReturned() bool {
	return o.Status == StatusReturned
}

// IsTerminal returns true if the order is in a terminal state
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}
