package memory

import (
	"context"
	"fmt"
	"sync"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

// InventoryStore keeps products and orders in process memory. Callers always receive copies.
type InventoryStore struct {
	mu       sync.RWMutex
	products map[int64]*product.Product
	orders   map[int64][]int64
}

func NewInventoryStore() *InventoryStore {
	return &InventoryStore{
		products: make(map[int64]*product.Product),
		orders:   make(map[int64][]int64),
	}
}

// PutProduct creates or replaces a product.
func (s *InventoryStore) PutProduct(ctx context.Context, p *product.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("memory: put product %d: %w", p.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p.Clone()
	return nil
}

// PutOrder links an order to already stored products.
func (s *InventoryStore) PutOrder(ctx context.Context, orderID int64, productIDs ...int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range productIDs {
		if _, ok := s.products[id]; !ok {
			return fmt.Errorf("memory: put order %d: product %d: %w", orderID, id, product.ErrNotFound)
		}
	}
	s.orders[orderID] = append([]int64(nil), productIDs...)
	return nil
}

func (s *InventoryStore) LoadOrderWithItems(ctx context.Context, orderID int64) (*domorder.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.orders[orderID]
	if !ok {
		return nil, domorder.ErrNotFound
	}
	items := make([]*product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			items = append(items, p.Clone())
		}
	}
	return domorder.New(orderID, items), nil
}

// SaveProduct writes back the mutable inventory fields of an existing product.
func (s *InventoryStore) SaveProduct(ctx context.Context, p *product.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.products[p.ID]
	if !ok {
		return fmt.Errorf("memory: save product %d: %w", p.ID, product.ErrNotFound)
	}
	if p.Available < 0 {
		return fmt.Errorf("memory: save product %d: %w", p.ID, product.ErrInvalidQuantity)
	}
	stored.Available = p.Available
	stored.LeadTimeDays = p.LeadTimeDays
	return nil
}

// Product returns a copy of the stored product.
func (s *InventoryStore) Product(ctx context.Context, id int64) (*product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p.Clone(), nil
}
