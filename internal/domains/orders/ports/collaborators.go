package ports

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// StockService is the contract of the external product/stock collaborator.
// Decrement re-validates availability atomically per product, so a
// check-then-decrement race between two placements cannot oversell.
type StockService interface {
	GetStock(ctx context.Context, productID int64) (int32, error)
	GetPrice(ctx context.Context, productID int64) (int64, error)
	Decrement(ctx context.Context, productID int64, quantity int32) error
	Increment(ctx context.Context, productID int64, quantity int32) error
}

// WalletService is the contract of the external wallet collaborator.
// Debit is atomic per user and fails with ErrInsufficientFunds when the
// balance does not cover the amount.
type WalletService interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
	Debit(ctx context.Context, userID int64, amount int64) error
	Credit(ctx context.Context, userID int64, amount int64) error
}
