package memory

import (
	"context"
	"sync"

	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
)

var _ ports.WalletService = (*WalletService)(nil)

// WalletService is a single-process stand-in for the external wallet
// collaborator. Debit is atomic per user: balance check and adjustment run
// under the same lock. Unknown users are treated as having a zero balance,
// so a debit against them fails with ErrInsufficientFunds, which stands in
// for the account existence check.
type WalletService struct {
	mu       sync.RWMutex
	balances map[int64]int64
}

func NewWalletService() *WalletService {
	return &WalletService{balances: map[int64]int64{}}
}

func (w *WalletService) GetBalance(_ context.Context, userID int64) (int64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.balances[userID], nil
}

func (w *WalletService) Debit(_ context.Context, userID int64, amount int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.balances[userID] < amount {
		return ports.ErrInsufficientFunds
	}
	w.balances[userID] -= amount
	return nil
}

func (w *WalletService) Credit(_ context.Context, userID int64, amount int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[userID] += amount
	return nil
}
