// Package application hosts the order orchestrator: the saga that keeps
// product stock, wallet balance, and order state moving together across
// placement and cancellation.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/domain"
	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
	"github.com/onlinemarketplace/order-orchestrator/internal/shared/keylock"
	"github.com/onlinemarketplace/order-orchestrator/internal/shared/retry"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBase     = 100 * time.Millisecond
)

// Service coordinates the order lifecycle across the order repository and
// the stock and wallet collaborators. Collaborators provide no cross-service
// transactions; the service owns the compensating actions that reverse
// partial progress when a later step fails.
type Service struct {
	repo            ports.Repository
	stock           ports.StockService
	wallet          ports.WalletService
	reconciliations ports.ReconciliationStore
	logger          *slog.Logger

	retryAttempts int
	retryBase     time.Duration
	orderLocks    *keylock.KeyLock
}

type Option func(*Service)

// WithLogger attaches a structured logger for compensation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithReconciliationStore journals compensations that exhausted their retry
// budget so the reconciler can replay them.
func WithReconciliationStore(store ports.ReconciliationStore) Option {
	return func(s *Service) { s.reconciliations = store }
}

// WithCompensationRetry overrides the bounded retry policy for compensating
// actions.
func WithCompensationRetry(attempts int, base time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.retryAttempts = attempts
		}
		if base > 0 {
			s.retryBase = base
		}
	}
}

func NewService(repo ports.Repository, stock ports.StockService, wallet ports.WalletService, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		stock:         stock,
		wallet:        wallet,
		retryAttempts: defaultRetryAttempts,
		retryBase:     defaultRetryBase,
		orderLocks:    keylock.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// PlaceOrder runs the forward saga: validate, check stock and funds, then
// decrement stock, debit the wallet, and insert the order. Any failure after
// the first side effect reverses what already happened, so either all three
// resources move or none do.
func (s *Service) PlaceOrder(ctx context.Context, input ports.PlaceOrderInput) (*domain.Order, error) {
	shape := &domain.Order{UserID: input.UserID, Items: input.Items, Status: domain.StatusPlaced}
	if err := shape.Validate(); err != nil {
		return nil, mapValidationError(err)
	}

	prices, err := s.checkAvailability(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	var total int64
	for i, item := range input.Items {
		total += prices[i] * int64(item.Quantity)
	}

	balance, err := s.wallet.GetBalance(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: wallet balance for user %d: %w", ErrCollaboratorFault, input.UserID, err)
	}
	if balance < total {
		return nil, fmt.Errorf("%w: order costs %d, balance is %d", ports.ErrInsufficientFunds, total, balance)
	}

	decremented, err := s.reserveStock(ctx, input.Items)
	if err != nil {
		if compErr := s.restock(ctx, 0, decremented); compErr != nil {
			return nil, compErr
		}
		return nil, err
	}

	if err := s.wallet.Debit(ctx, input.UserID, total); err != nil {
		compErr := s.restock(ctx, 0, decremented)
		if compErr != nil {
			return nil, compErr
		}
		if errors.Is(err, ports.ErrInsufficientFunds) {
			return nil, fmt.Errorf("%w: debit of %d rejected", ports.ErrInsufficientFunds, total)
		}
		return nil, fmt.Errorf("%w: debit wallet of user %d: %w", ErrCollaboratorFault, input.UserID, err)
	}

	order, err := domain.NewOrder(input.UserID, input.Items, total)
	if err != nil {
		// Shape was validated up front; treat as an internal inconsistency.
		err = fmt.Errorf("build order for user %d: %w", input.UserID, err)
	}
	var saved *domain.Order
	if err == nil {
		saved, err = s.repo.Insert(ctx, order)
	}
	if err != nil {
		compErr := errors.Join(
			s.refund(ctx, 0, input.UserID, total),
			s.restock(ctx, 0, decremented),
		)
		if compErr != nil {
			return nil, compErr
		}
		return nil, fmt.Errorf("%w: persist order: %w", ErrCollaboratorFault, err)
	}
	return saved, nil
}

// GetOrderByID loads an order, including cancelled ones; history is never
// deleted.
func (s *Service) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
	}
	return order, err
}

// ListOrdersByUser returns every order the user has placed, cancelled or not.
func (s *Service) ListOrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// CancelOrder reverses a placement: the status transition is claimed first
// through the repository choke point, so of two concurrent cancels exactly
// one restores stock and refunds the wallet; the other observes
// ErrAlreadyCancelled. Restore failures are retried, then journaled.
func (s *Service) CancelOrder(ctx context.Context, id int64) error {
	unlock := s.orderLocks.Lock(id)
	defer unlock()

	order, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("%w: load order %d: %w", ErrCollaboratorFault, id, err)
	}
	if order.Status == domain.StatusCancelled {
		return fmt.Errorf("%w: id %d", ErrAlreadyCancelled, id)
	}

	if err := s.repo.Transition(ctx, id, domain.StatusPlaced, domain.StatusCancelled); err != nil {
		switch {
		case errors.Is(err, ports.ErrNotFound):
			return fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
		case errors.Is(err, ports.ErrInvalidTransition):
			return fmt.Errorf("%w: id %d", ErrAlreadyCancelled, id)
		default:
			return fmt.Errorf("%w: transition order %d: %w", ErrCollaboratorFault, id, err)
		}
	}

	compErr := errors.Join(
		s.restock(ctx, id, order.Items),
		s.refund(ctx, id, order.UserID, order.TotalCost),
	)
	return compErr
}

// CancelOrdersByUser cancels every placed order of the user. Orders already
// cancelled are left alone; each remaining order goes through the same
// single-order cancel path, so the per-order guarantees hold unchanged.
func (s *Service) CancelOrdersByUser(ctx context.Context, userID int64) error {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: list orders of user %d: %w", ErrCollaboratorFault, userID, err)
	}
	return s.cancelAll(ctx, orders)
}

// CancelAllOrders cancels every placed order in the store.
func (s *Service) CancelAllOrders(ctx context.Context) error {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: list orders: %w", ErrCollaboratorFault, err)
	}
	return s.cancelAll(ctx, orders)
}

func (s *Service) cancelAll(ctx context.Context, orders []*domain.Order) error {
	var failed error
	for _, order := range orders {
		if order.Status != domain.StatusPlaced {
			continue
		}
		err := s.CancelOrder(ctx, order.ID)
		// A concurrent cancel may have claimed the order since the listing.
		if err != nil && !errors.Is(err, ErrAlreadyCancelled) {
			failed = errors.Join(failed, err)
		}
	}
	return failed
}

// checkAvailability queries stock and unit price for every item before any
// side effect. Unknown products surface as insufficient stock, matching the
// boundary contract.
func (s *Service) checkAvailability(ctx context.Context, items []domain.Item) ([]int64, error) {
	prices := make([]int64, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			available, err := s.stock.GetStock(gctx, item.ProductID)
			if errors.Is(err, ports.ErrProductNotFound) {
				return fmt.Errorf("%w: unknown product %d", ports.ErrInsufficientStock, item.ProductID)
			}
			if err != nil {
				return fmt.Errorf("%w: stock of product %d: %w", ErrCollaboratorFault, item.ProductID, err)
			}
			if available < item.Quantity {
				return fmt.Errorf("%w: product %d has %d, requested %d", ports.ErrInsufficientStock, item.ProductID, available, item.Quantity)
			}
			price, err := s.stock.GetPrice(gctx, item.ProductID)
			if err != nil {
				return fmt.Errorf("%w: price of product %d: %w", ErrCollaboratorFault, item.ProductID, err)
			}
			prices[i] = price
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prices, nil
}

// reserveStock decrements every item and reports how far it got. The stock
// collaborator re-validates at decrement time, so losing a race for the last
// units shows up here as ErrInsufficientStock.
func (s *Service) reserveStock(ctx context.Context, items []domain.Item) ([]domain.Item, error) {
	decremented := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if err := s.stock.Decrement(ctx, item.ProductID, item.Quantity); err != nil {
			if errors.Is(err, ports.ErrInsufficientStock) || errors.Is(err, ports.ErrProductNotFound) {
				return decremented, fmt.Errorf("%w: product %d", ports.ErrInsufficientStock, item.ProductID)
			}
			return decremented, fmt.Errorf("%w: decrement product %d: %w", ErrCollaboratorFault, item.ProductID, err)
		}
		decremented = append(decremented, item)
	}
	return decremented, nil
}

// restock re-increments stock for items whose decrement already happened.
// Runs even when the request context is gone; an abandoned request must not
// leave stock reserved.
func (s *Service) restock(ctx context.Context, orderID int64, items []domain.Item) error {
	ctx = context.WithoutCancel(ctx)
	var failed error
	for _, item := range items {
		err := retry.Do(ctx, s.retryAttempts, s.retryBase, func() error {
			return s.stock.Increment(ctx, item.ProductID, item.Quantity)
		})
		if err == nil {
			continue
		}
		s.journal(ctx, ports.PendingCompensation{
			OrderID:   orderID,
			Operation: ports.CompensationRestock,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Attempts:  s.retryAttempts,
		}, err)
		failed = errors.Join(failed, fmt.Errorf("%w: restock product %d by %d: %w", ErrCollaboratorFault, item.ProductID, item.Quantity, err))
	}
	return failed
}

// refund credits the wallet back by amount, with the same retry and journal
// policy as restock.
func (s *Service) refund(ctx context.Context, orderID, userID, amount int64) error {
	if amount == 0 {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	err := retry.Do(ctx, s.retryAttempts, s.retryBase, func() error {
		return s.wallet.Credit(ctx, userID, amount)
	})
	if err == nil {
		return nil
	}
	s.journal(ctx, ports.PendingCompensation{
		OrderID:   orderID,
		Operation: ports.CompensationRefund,
		UserID:    userID,
		Amount:    amount,
		Attempts:  s.retryAttempts,
	}, err)
	return fmt.Errorf("%w: refund %d to user %d: %w", ErrCollaboratorFault, amount, userID, err)
}

func (s *Service) journal(ctx context.Context, pending ports.PendingCompensation, cause error) {
	if s.logger != nil {
		s.logger.Error("compensation exhausted retries, journaling for reconciliation",
			slog.Int64("order.id", pending.OrderID),
			slog.String("operation", pending.Operation),
			slog.Int64("product.id", pending.ProductID),
			slog.Int64("user.id", pending.UserID),
			slog.Int64("amount", pending.Amount),
			slog.String("error", cause.Error()))
	}
	if s.reconciliations == nil {
		return
	}
	if err := s.reconciliations.Enqueue(ctx, pending); err != nil && s.logger != nil {
		s.logger.Error("failed to journal pending compensation",
			slog.Int64("order.id", pending.OrderID),
			slog.String("error", err.Error()))
	}
}

var _ ports.Service = (*Service)(nil)
