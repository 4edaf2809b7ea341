package ports

import (
	"context"

	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/domain"
)

// PlaceOrderInput carries the order request accepted at the boundary.
type PlaceOrderInput struct {
	UserID int64
	Items  []domain.Item
}

// Service exposes the order orchestration use cases to adapters.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	CancelOrder(ctx context.Context, id int64) error
	CancelOrdersByUser(ctx context.Context, userID int64) error
	CancelAllOrders(ctx context.Context) error
	ListOrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
}
