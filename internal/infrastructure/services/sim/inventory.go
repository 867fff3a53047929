// Package sim provides in-process collaborator implementations used by
// default and by the tests. Real backends plug in behind the same ports.
package sim

import (
	"context"
	"sync"

	"orderpipeline/internal/domain/inventory"
)

// Inventory keeps per-product stock in memory. A product seen for the first
// time is initialized with defaultStock, so a fresh process can serve orders
// without a seeding step.
type Inventory struct {
	mu           sync.RWMutex
	items        map[string]*inventory.Item
	defaultStock int
}

func NewInventory(defaultStock int) *Inventory {
	if defaultStock < 0 {
		defaultStock = 0
	}
	return &Inventory{
		items:        make(map[string]*inventory.Item),
		defaultStock: defaultStock,
	}
}

// SetStock pins the stock level for a product, creating it if needed.
func (s *Inventory) SetStock(productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := inventory.NewItem(productID, quantity)
	if err != nil {
		return
	}
	s.items[productID] = item
}

func (s *Inventory) Stock(productID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, ok := s.items[productID]; ok {
		return item.Quantity
	}
	return s.defaultStock
}

func (s *Inventory) CheckAvailability(ctx context.Context, productID string, quantity int) (bool, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.load(productID)
	return item.Available(quantity), nil
}

func (s *Inventory) Decrement(ctx context.Context, productID string, quantity int) (bool, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.load(productID)
	if err := item.Deduct(quantity); err != nil {
		return false, err
	}
	return true, nil
}

// load returns the tracked item, lazily initializing unknown products with
// the default stock. Callers hold the write lock.
func (s *Inventory) load(productID string) *inventory.Item {
	if item, ok := s.items[productID]; ok {
		return item
	}
	item, _ := inventory.NewItem(productID, s.defaultStock)
	s.items[productID] = item
	return item
}
