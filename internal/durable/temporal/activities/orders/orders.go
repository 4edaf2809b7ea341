package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/domain"
	ordersports "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
)

// Activity registration names for the orders bounded context.
const (
	PriceOrderActivityName   = "orders.activities.PriceOrder"
	ReserveStockActivityName = "orders.activities.ReserveStock"
	ReleaseStockActivityName = "orders.activities.ReleaseStock"
	DebitWalletActivityName  = "orders.activities.DebitWallet"
	RefundWalletActivityName = "orders.activities.RefundWallet"
	PersistOrderActivityName = "orders.activities.PersistOrder"
)

// Application error types carried across the Temporal boundary. Rejections
// are final; Temporal must not retry them.
const (
	ErrTypeInvalidInput      = "InvalidInput"
	ErrTypeInsufficientStock = "InsufficientStock"
	ErrTypeInsufficientFunds = "InsufficientFunds"
)

// NonRetryableErrorTypes lists the rejection types for activity retry policies.
var NonRetryableErrorTypes = []string{
	ErrTypeInvalidInput,
	ErrTypeInsufficientStock,
	ErrTypeInsufficientFunds,
}

// Activities groups the saga steps executed by the Temporal worker. Each
// activity is a thin, individually retryable call against one collaborator.
type Activities struct {
	repo   ordersports.Repository
	stock  ordersports.StockService
	wallet ordersports.WalletService
}

// NewActivities wires the order collaborators into the activities bundle.
func NewActivities(repo ordersports.Repository, stock ordersports.StockService, wallet ordersports.WalletService) *Activities {
	return &Activities{repo: repo, stock: stock, wallet: wallet}
}

// WalletAdjustment is the payload for debit and refund activities.
type WalletAdjustment struct {
	UserID int64
	Amount int64
}

// PersistOrderInput carries everything needed to write the PLACED record.
type PersistOrderInput struct {
	UserID    int64
	Items     []domain.Item
	TotalCost int64
}

// PriceOrder validates the request, checks availability, and returns the
// total cost after confirming the wallet covers it. Read-only.
func (a *Activities) PriceOrder(ctx context.Context, input ordersports.PlaceOrderInput) (int64, error) {
	logger := activity.GetLogger(ctx)
	shape := &domain.Order{UserID: input.UserID, Items: input.Items, Status: domain.StatusPlaced}
	if err := shape.Validate(); err != nil {
		return 0, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
	}
	var total int64
	for _, item := range input.Items {
		available, err := a.stock.GetStock(ctx, item.ProductID)
		if errors.Is(err, ordersports.ErrProductNotFound) {
			return 0, temporal.NewNonRetryableApplicationError("unknown product", ErrTypeInsufficientStock, err)
		}
		if err != nil {
			return 0, err
		}
		if available < item.Quantity {
			return 0, temporal.NewNonRetryableApplicationError("insufficient stock", ErrTypeInsufficientStock, nil)
		}
		price, err := a.stock.GetPrice(ctx, item.ProductID)
		if err != nil {
			return 0, err
		}
		total += price * int64(item.Quantity)
	}
	balance, err := a.wallet.GetBalance(ctx, input.UserID)
	if err != nil {
		return 0, err
	}
	if balance < total {
		return 0, temporal.NewNonRetryableApplicationError("insufficient funds", ErrTypeInsufficientFunds, nil)
	}
	logger.Info("order priced", "userId", input.UserID, "totalCost", total)
	return total, nil
}

// ReserveStock decrements every item. On a partial failure it reverses its
// own progress before returning, so the activity is atomic from the
// workflow's point of view.
func (a *Activities) ReserveStock(ctx context.Context, items []domain.Item) error {
	logger := activity.GetLogger(ctx)
	decremented := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if err := a.stock.Decrement(ctx, item.ProductID, item.Quantity); err != nil {
			for _, done := range decremented {
				if incErr := a.stock.Increment(ctx, done.ProductID, done.Quantity); incErr != nil {
					logger.Error("failed to undo partial reservation", "productId", done.ProductID, "error", incErr)
				}
			}
			if errors.Is(err, ordersports.ErrInsufficientStock) || errors.Is(err, ordersports.ErrProductNotFound) {
				return temporal.NewNonRetryableApplicationError("insufficient stock", ErrTypeInsufficientStock, err)
			}
			return err
		}
		decremented = append(decremented, item)
	}
	return nil
}

// ReleaseStock re-increments every item of a reservation being compensated.
func (a *Activities) ReleaseStock(ctx context.Context, items []domain.Item) error {
	for _, item := range items {
		if err := a.stock.Increment(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// DebitWallet charges the order total.
func (a *Activities) DebitWallet(ctx context.Context, adj WalletAdjustment) error {
	err := a.wallet.Debit(ctx, adj.UserID, adj.Amount)
	if errors.Is(err, ordersports.ErrInsufficientFunds) {
		return temporal.NewNonRetryableApplicationError("insufficient funds", ErrTypeInsufficientFunds, err)
	}
	return err
}

// RefundWallet credits the order total back during compensation.
func (a *Activities) RefundWallet(ctx context.Context, adj WalletAdjustment) error {
	return a.wallet.Credit(ctx, adj.UserID, adj.Amount)
}

// PersistOrder writes the PLACED record and returns it with its assigned id.
func (a *Activities) PersistOrder(ctx context.Context, input PersistOrderInput) (*domain.Order, error) {
	order, err := domain.NewOrder(input.UserID, input.Items, input.TotalCost)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
	}
	return a.repo.Insert(ctx, order)
}
