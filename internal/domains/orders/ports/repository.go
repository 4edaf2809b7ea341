package ports

import (
	"context"
	"errors"

	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/domain"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTransition signals the order exists but is not in the
	// expected source state, e.g. cancelling an already cancelled order.
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// Repository persists orders. Insert assigns a fresh, never-reused id.
// Transition is the single choke point through which status changes flow:
// it atomically moves an order from one status to another and fails with
// ErrInvalidTransition when the order is not in the from state, which makes
// "already cancelled" detection race-free.
type Repository interface {
	Insert(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	Transition(ctx context.Context, id int64, from, to domain.Status) error
	ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
}
