package memory

import (
	"context"
	"sync"

	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
)

var _ ports.StockService = (*StockService)(nil)

// Product seeds the in-memory stock collaborator.
type Product struct {
	ID    int64
	Price int64
	Stock int32
}

// StockService is a single-process stand-in for the external product/stock
// collaborator. Check-then-adjust runs under one lock, so adjustments are
// atomic per product and contending placements cannot oversell.
type StockService struct {
	mu       sync.RWMutex
	products map[int64]*Product
}

func NewStockService(products ...Product) *StockService {
	s := &StockService{products: map[int64]*Product{}}
	for _, p := range products {
		clone := p
		s.products[p.ID] = &clone
	}
	return s
}

func (s *StockService) GetStock(_ context.Context, productID int64) (int32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[productID]
	if !ok {
		return 0, ports.ErrProductNotFound
	}
	return product.Stock, nil
}

func (s *StockService) GetPrice(_ context.Context, productID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[productID]
	if !ok {
		return 0, ports.ErrProductNotFound
	}
	return product.Price, nil
}

// Decrement re-validates availability under the lock before adjusting.
func (s *StockService) Decrement(_ context.Context, productID int64, quantity int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[productID]
	if !ok {
		return ports.ErrProductNotFound
	}
	if product.Stock < quantity {
		return ports.ErrInsufficientStock
	}
	product.Stock -= quantity
	return nil
}

func (s *StockService) Increment(_ context.Context, productID int64, quantity int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[productID]
	if !ok {
		return ports.ErrProductNotFound
	}
	product.Stock += quantity
	return nil
}
