package ports

import (
	"context"

	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/domain"
)

// WorkflowOrchestrator starts the order placement saga, either durably on a
// Temporal cluster or inline against the application service.
type WorkflowOrchestrator interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error)
}
