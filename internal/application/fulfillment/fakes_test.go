package fulfillment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

var errStoreDown = errors.New("store down")

type fakeStore struct {
	mu       sync.Mutex
	orders   map[int64][]int64
	products map[int64]*product.Product

	loads    int
	saves    []*product.Product
	loadErr  error
	saveErr  error
	inflight atomic.Int32
	overlap  atomic.Bool
	delay    time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:   make(map[int64][]int64),
		products: make(map[int64]*product.Product),
	}
}

func (s *fakeStore) addOrder(id int64, items ...*product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(items))
	for _, p := range items {
		s.products[p.ID] = p.Clone()
		ids = append(ids, p.ID)
	}
	s.orders[id] = ids
}

func (s *fakeStore) LoadOrderWithItems(ctx context.Context, orderID int64) (*domorder.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	ids, ok := s.orders[orderID]
	if !ok {
		return nil, domorder.ErrNotFound
	}
	items := make([]*product.Product, 0, len(ids))
	for _, id := range ids {
		items = append(items, s.products[id].Clone())
	}
	return domorder.New(orderID, items), nil
}

// SaveProduct flags any overlapping call; the writer must never produce one.
func (s *fakeStore) SaveProduct(ctx context.Context, p *product.Product) error {
	if s.inflight.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.inflight.Add(-1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.products[p.ID] = p.Clone()
	s.saves = append(s.saves, p.Clone())
	return nil
}

func (s *fakeStore) product(id int64) *product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Clone()
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

type delayCall struct {
	LeadTimeDays int
	Name         string
}

type expirationCall struct {
	Name   string
	Expiry time.Time
}

type recordingNotifier struct {
	mu          sync.Mutex
	delays      []delayCall
	outOfStock  []string
	expirations []expirationCall
}

func (n *recordingNotifier) SendDelayNotification(_ context.Context, leadTimeDays int, productName string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delays = append(n.delays, delayCall{LeadTimeDays: leadTimeDays, Name: productName})
}

func (n *recordingNotifier) SendOutOfStockNotification(_ context.Context, productName string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outOfStock = append(n.outOfStock, productName)
}

func (n *recordingNotifier) SendExpirationNotification(_ context.Context, productName string, expiryDate time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expirations = append(n.expirations, expirationCall{Name: productName, Expiry: expiryDate})
}

func (n *recordingNotifier) total() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.delays) + len(n.outOfStock) + len(n.expirations)
}

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

func daysFrom(t time.Time, days int) *time.Time {
	v := t.Add(time.Duration(days) * day)
	return &v
}

// countingSaver records saves without a writer in front of it.
type countingSaver struct {
	mu    sync.Mutex
	saved []*product.Product
	err   error
}

func (s *countingSaver) SaveProduct(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, p.Clone())
	return nil
}
