package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/adapters/memory"
	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/domain"
	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
)

const (
	testUser    int64 = 1
	testProduct int64 = 101
	unitPrice   int64 = 130
)

type fixture struct {
	repo   *memory.Repository
	stock  *memory.StockService
	wallet *memory.WalletService
}

func newFixture(t *testing.T, stockQty int32, balance int64) fixture {
	t.Helper()
	f := fixture{
		repo:   memory.NewRepository(),
		stock:  memory.NewStockService(memory.Product{ID: testProduct, Price: unitPrice, Stock: stockQty}),
		wallet: memory.NewWalletService(),
	}
	require.NoError(t, f.wallet.Credit(context.Background(), testUser, balance))
	return f
}

func (f fixture) service(opts ...Option) *Service {
	return NewService(f.repo, f.stock, f.wallet, opts...)
}

func (f fixture) snapshot(t *testing.T) (int32, int64) {
	t.Helper()
	stock, err := f.stock.GetStock(context.Background(), testProduct)
	require.NoError(t, err)
	balance, err := f.wallet.GetBalance(context.Background(), testUser)
	require.NoError(t, err)
	return stock, balance
}

func TestPlaceOrder_DecrementsStockAndDebitsWallet(t *testing.T) {
	f := newFixture(t, 10, 10000)
	svc := f.service()

	order, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		UserID: testUser,
		Items:  []domain.Item{{ProductID: testProduct, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Positive(t, order.ID)
	require.Equal(t, domain.StatusPlaced, order.Status)
	require.Equal(t, 2*unitPrice, order.TotalCost)

	stock, balance := f.snapshot(t)
	require.Equal(t, int32(8), stock)
	require.Equal(t, 10000-2*unitPrice, balance)
}

func TestPlaceOrder_RejectsInvalidQuantities(t *testing.T) {
	f := newFixture(t, 10, 10000)
	svc := f.service()

	for _, qty := range []int32{0, -5} {
		_, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{
			UserID: testUser,
			Items:  []domain.Item{{ProductID: testProduct, Quantity: qty}},
		})
		require.ErrorIs(t, err, ErrInvalidInput)
	}
	_, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{UserID: testUser})
	require.ErrorIs(t, err, ErrInvalidInput)

	stock, balance := f.snapshot(t)
	require.Equal(t, int32(10), stock)
	require.Equal(t, int64(10000), balance)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	f := newFixture(t, 1, 10000)
	svc := f.service()

	_, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		UserID: testUser,
		Items:  []domain.Item{{ProductID: testProduct, Quantity: 2}},
	})
	require.ErrorIs(t, err, ports.ErrInsufficientStock)

	stock, balance := f.snapshot(t)
	require.Equal(t, int32(1), stock)
	require.Equal(t, int64(10000), balance)
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	f := newFixture(t, 10, 10000)
	svc := f.service()

	_, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		UserID: testUser,
		Items:  []domain.Item{{ProductID: 999, Quantity: 1}},
	})
	require.ErrorIs(t, err, ports.ErrInsufficientStock)
}

func TestPlaceOrder_InsufficientFunds(t *testing.T) {
	f := newFixture(t, 10, unitPrice-1)
	svc := f.service()

	_, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		UserID: testUser,
		Items:  []domain.Item{{ProductID: testProduct, Quantity: 1}},
	})
	require.ErrorIs(t, err, ports.ErrInsufficientFunds)

	stock, balance := f.snapshot(t)
	require.Equal(t, int32(10), stock)
	require.Equal(t, unitPrice-1, balance)
}

// failingWallet reports a healthy balance but rejects every debit, forcing
// the stock compensation path.
type failingWallet struct {
	ports.WalletService
	debitErr error
}

func (w failingWallet) Debit(context.Context, int64, int64) error { return w.debitErr }

func TestPlaceOrder_DebitFaultRestoresStock(t *testing.T) {
	f := newFixture(t, 10, 10000)
	svc := NewService(f.repo, f.stock, failingWallet{WalletService: f.wallet, debitErr: errors.New("wallet down")},
		WithCompensationRetry(2, time.Millisecond))

	_, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		UserID: testUser,
		Items:  []domain.Item{{ProductID: testProduct, Quantity: 3}},
	})
	require.ErrorIs(t, err, ErrCollaboratorFault)

	stock, balance := f.snapshot(t)
	require.Equal(t, int32(10), stock)
	require.Equal(t, int64(10000), balance)
}

// failingRepo rejects inserts, forcing the full rollback of stock and
// wallet.
type failingRepo struct {
	ports.Repository
}

func (failingRepo) Insert(context.Context, *domain.Order) (*domain.Order, error) {
	return nil, errors.New("storage down")
}

func TestPlaceOrder_InsertFaultRestoresStockAndWallet(t *testing.T) {
	f := newFixture(t, 10, 10000)
	svc := NewService(failingRepo{Repository: f.repo}, f.stock, f.wallet,
		WithCompensationRetry(2, time.Millisecond))

	_, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		UserID: testUser,
		Items:  []domain.Item{{ProductID: testProduct, Quantity: 3}},
	})
	require.ErrorIs(t, err, ErrCollaboratorFault)

	stock, balance := f.snapshot(t)
	require.Equal(t, int32(10), stock)
	require.Equal(t, int64(10000), balance)
}

func TestCancelOrder_RestoresStockAndWallet(t *testing.T) {
	f := newFixture(t, 10, 10000)
	svc := f.service()
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, ports.PlaceOrderInput{
		UserID: testUser,
		Items:  []domain.Item{{ProductID: testProduct, Quantity: 4}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.CancelOrder(ctx, order.ID))

	stock, balance := f.snapshot(t)
	require.Equal(t, int32(10), stock)
	require.Equal(t, int64(10000), balance)

	got, err := svc.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, got.Status)
	require.Equal(t, order.TotalCost, got.TotalCost)
	require.Equal(t, order.Items, got.Items)
}

func TestCancelOrder_UnknownOrder(t *testing.T) {
	f := newFixture(t, 10, 10000)
	svc := f.service()

	err := svc.CancelOrder(context.Background(), 99999)
	require.ErrorIs(t, err, ErrOrderNotFound)

	stock, balance := f.snapshot(t)
	require.Equal(t, int32(10), stock)
	require.Equal(t, int64(10000), balance)
}

func TestCancelOrder_TwiceIsRejected(t *testing.T) {
	f := newFixture(t, 10, 10000)
	svc := f.service()
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, ports.PlaceOrderInput{
		UserID: testUser,
		Items:  []domain.Item{{ProductID: testProduct, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.CancelOrder(ctx, order.ID))
	require.ErrorIs(t, svc.CancelOrder(ctx, order.ID), ErrAlreadyCancelled)

	// A rejected second cancel must not refund or restock again.
	stock, balance := f.snapshot(t)
	require.Equal(t, int32(10), stock)
	require.Equal(t, int64(10000), balance)
}

func TestCancelOrder_ConcurrentCancelsRefundOnce(t *testing.T) {
	f := newFixture(t, 10, 10000)
	svc := f.service()
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, ports.PlaceOrderInput{
		UserID: testUser,
		Items:  []domain.Item{{ProductID: testProduct, Quantity: 2}},
	})
	require.NoError(t, err)

	const racers = 8
	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.CancelOrder(ctx, order.ID)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrAlreadyCancelled)
		}
	}
	require.Equal(t, 1, succeeded)

	stock, balance := f.snapshot(t)
	require.Equal(t, int32(10), stock)
	require.Equal(t, int64(10000), balance)
}

func TestPlaceOrder_ConcurrentContentionForLastUnits(t *testing.T) {
	f := newFixture(t, 2, 100000)
	svc := f.service()
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(ctx, ports.PlaceOrderInput{
				UserID: testUser,
				Items:  []domain.Item{{ProductID: testProduct, Quantity: 2}},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, outOfStock := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ports.ErrInsufficientStock):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, outOfStock)

	stock, _ := f.snapshot(t)
	require.Equal(t, int32(0), stock)
}

// brokenStock fails every increment so restock compensation can never land.
type brokenStock struct {
	ports.StockService
}

func (b brokenStock) Increment(context.Context, int64, int32) error {
	return errors.New("stock service unreachable")
}

func TestCancelOrder_JournalsExhaustedCompensation(t *testing.T) {
	f := newFixture(t, 10, 10000)
	journal := memory.NewReconciliationStore()
	svc := f.service()
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, ports.PlaceOrderInput{
		UserID: testUser,
		Items:  []domain.Item{{ProductID: testProduct, Quantity: 2}},
	})
	require.NoError(t, err)

	broken := NewService(f.repo, brokenStock{StockService: f.stock}, f.wallet,
		WithReconciliationStore(journal),
		WithCompensationRetry(2, time.Millisecond))

	err = broken.CancelOrder(ctx, order.ID)
	require.ErrorIs(t, err, ErrCollaboratorFault)

	// The transition stands even though the restock is pending; the journal
	// carries what remains to be applied.
	got, err := svc.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, got.Status)

	pending, err := journal.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, ports.CompensationRestock, pending[0].Operation)
	require.Equal(t, order.ID, pending[0].OrderID)
	require.Equal(t, testProduct, pending[0].ProductID)
	require.Equal(t, int32(2), pending[0].Quantity)

	// The refund side still applied.
	_, balance := f.snapshot(t)
	require.Equal(t, int64(10000), balance)
}

func TestCancelOrdersByUser_CancelsOnlyThatUsersPlacedOrders(t *testing.T) {
	f := newFixture(t, 20, 100000)
	svc := f.service()
	ctx := context.Background()

	const otherUser int64 = 2
	require.NoError(t, f.wallet.Credit(ctx, otherUser, 10000))

	place := func(userID int64) *domain.Order {
		order, err := svc.PlaceOrder(ctx, ports.PlaceOrderInput{
			UserID: userID,
			Items:  []domain.Item{{ProductID: testProduct, Quantity: 1}},
		})
		require.NoError(t, err)
		return order
	}
	first := place(testUser)
	second := place(testUser)
	kept := place(otherUser)

	// One of the user's orders is already cancelled; the batch skips it.
	require.NoError(t, svc.CancelOrder(ctx, first.ID))

	require.NoError(t, svc.CancelOrdersByUser(ctx, testUser))

	for _, id := range []int64{first.ID, second.ID} {
		got, err := svc.GetOrderByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, domain.StatusCancelled, got.Status)
	}
	got, err := svc.GetOrderByID(ctx, kept.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPlaced, got.Status)

	stock, balance := f.snapshot(t)
	require.Equal(t, int32(19), stock)
	require.Equal(t, int64(100000), balance)
}

func TestCancelOrdersByUser_NoOrdersIsANoOp(t *testing.T) {
	f := newFixture(t, 10, 10000)
	svc := f.service()

	require.NoError(t, svc.CancelOrdersByUser(context.Background(), 4242))
}

func TestCancelAllOrders_RestoresEveryResource(t *testing.T) {
	f := newFixture(t, 20, 100000)
	svc := f.service()
	ctx := context.Background()

	const otherUser int64 = 2
	require.NoError(t, f.wallet.Credit(ctx, otherUser, 10000))

	for _, userID := range []int64{testUser, testUser, otherUser} {
		_, err := svc.PlaceOrder(ctx, ports.PlaceOrderInput{
			UserID: userID,
			Items:  []domain.Item{{ProductID: testProduct, Quantity: 2}},
		})
		require.NoError(t, err)
	}

	require.NoError(t, svc.CancelAllOrders(ctx))
	// Cancelling again finds nothing placed.
	require.NoError(t, svc.CancelAllOrders(ctx))

	orders, err := svc.ListOrdersByUser(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, order := range orders {
		require.Equal(t, domain.StatusCancelled, order.Status)
	}

	stock, balance := f.snapshot(t)
	require.Equal(t, int32(20), stock)
	require.Equal(t, int64(100000), balance)
	otherBalance, err := f.wallet.GetBalance(ctx, otherUser)
	require.NoError(t, err)
	require.Equal(t, int64(10000), otherBalance)
}

func TestGetOrderByID_Unknown(t *testing.T) {
	f := newFixture(t, 10, 10000)
	svc := f.service()
	_, err := svc.GetOrderByID(context.Background(), 424242)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrdersByUser(t *testing.T) {
	f := newFixture(t, 10, 10000)
	svc := f.service()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.PlaceOrder(ctx, ports.PlaceOrderInput{
			UserID: testUser,
			Items:  []domain.Item{{ProductID: testProduct, Quantity: 1}},
		})
		require.NoError(t, err)
	}

	orders, err := svc.ListOrdersByUser(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, orders, 2)
}
