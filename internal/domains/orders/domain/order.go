package domain

import (
	"errors"
	"time"
)

// Status enumerates order lifecycle states exposed to clients.
type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusCancelled Status = "CANCELLED"
)

var (
	ErrInvalidUserID    = errors.New("user id must be greater than zero")
	ErrInvalidProductID = errors.New("product id must be greater than zero")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrEmptyItems       = errors.New("order must contain at least one item")
	ErrInvalidStatus    = errors.New("order status is invalid")
)

// Item is a single (product, quantity) line of an order.
type Item struct {
	ProductID int64
	Quantity  int32
}

// Order models the marketplace purchase order aggregate. ID is assigned by
// the repository on insert and immutable afterwards; TotalCost is fixed at
// placement time.
type Order struct {
	ID        int64
	UserID    int64
	Items     []Item
	Status    Status
	TotalCost int64
	CreatedAt time.Time
}

// NewOrder validates and constructs an order in the PLACED state.
func NewOrder(userID int64, items []Item, totalCost int64) (*Order, error) {
	order := &Order{
		UserID:    userID,
		Items:     append([]Item(nil), items...),
		Status:    StatusPlaced,
		TotalCost: totalCost,
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate enforces invariants on the aggregate.
func (o *Order) Validate() error {
	if o.UserID <= 0 {
		return ErrInvalidUserID
	}
	if len(o.Items) == 0 {
		return ErrEmptyItems
	}
	for _, item := range o.Items {
		if item.ProductID <= 0 {
			return ErrInvalidProductID
		}
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	if !isValidStatus(o.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// CanTransition reports whether the status may move from its current value
// to next. The lifecycle is monotonic: PLACED may become CANCELLED and a
// CANCELLED order never leaves that state.
func (o *Order) CanTransition(next Status) bool {
	return o.Status == StatusPlaced && next == StatusCancelled
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusPlaced, StatusCancelled:
		return true
	default:
		return false
	}
}
