package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/domain"
	ordersports "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
	orderactivities "github.com/onlinemarketplace/order-orchestrator/internal/durable/temporal/activities/orders"
)

// RunOrderPlacementSequence executes the placement saga: price, reserve
// stock, debit the wallet, persist the order. Each forward step that
// succeeds pushes a compensation; on failure the compensations run in
// reverse on a disconnected context so a workflow cancellation cannot strand
// reserved stock or debited funds.
func RunOrderPlacementSequence(ctx workflow.Context, input ordersports.PlaceOrderInput) (*domain.Order, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order placement sequence started", "userId", input.UserID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Second,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: orderactivities.NonRetryableErrorTypes,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var compensations []func(workflow.Context) error
	compensate := func(err error) error {
		disconnectedCtx, cancel := workflow.NewDisconnectedContext(ctx)
		defer cancel()
		compensationCtx := workflow.WithActivityOptions(disconnectedCtx, options)
		for i := len(compensations) - 1; i >= 0; i-- {
			if compErr := compensations[i](compensationCtx); compErr != nil {
				logger.Error("order placement compensation failed", "userId", input.UserID, "error", compErr)
			}
		}
		return err
	}

	var totalCost int64
	if err := workflow.ExecuteActivity(ctx, orderactivities.PriceOrderActivityName, input).Get(ctx, &totalCost); err != nil {
		logger.Error("order placement sequence failed", "userId", input.UserID, "step", "price", "error", err)
		return nil, err
	}

	if err := workflow.ExecuteActivity(ctx, orderactivities.ReserveStockActivityName, input.Items).Get(ctx, nil); err != nil {
		logger.Error("order placement sequence failed", "userId", input.UserID, "step", "reserveStock", "error", err)
		return nil, compensate(err)
	}
	compensations = append(compensations, func(ctx workflow.Context) error {
		return workflow.ExecuteActivity(ctx, orderactivities.ReleaseStockActivityName, input.Items).Get(ctx, nil)
	})

	adjustment := orderactivities.WalletAdjustment{UserID: input.UserID, Amount: totalCost}
	if err := workflow.ExecuteActivity(ctx, orderactivities.DebitWalletActivityName, adjustment).Get(ctx, nil); err != nil {
		logger.Error("order placement sequence failed", "userId", input.UserID, "step", "debitWallet", "error", err)
		return nil, compensate(err)
	}
	compensations = append(compensations, func(ctx workflow.Context) error {
		return workflow.ExecuteActivity(ctx, orderactivities.RefundWalletActivityName, adjustment).Get(ctx, nil)
	})

	persist := orderactivities.PersistOrderInput{UserID: input.UserID, Items: input.Items, TotalCost: totalCost}
	var order domain.Order
	if err := workflow.ExecuteActivity(ctx, orderactivities.PersistOrderActivityName, persist).Get(ctx, &order); err != nil {
		logger.Error("order placement sequence failed", "userId", input.UserID, "step", "persistOrder", "error", err)
		return nil, compensate(err)
	}

	logger.Info("order placement sequence completed", "userId", input.UserID, "orderId", order.ID, "totalCost", order.TotalCost)
	return &order, nil
}
