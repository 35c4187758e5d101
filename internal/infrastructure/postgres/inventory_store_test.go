package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

func newTestStore(t *testing.T) *InventoryStore {
	t.Helper()
	url := os.Getenv("FULFILLMENT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FULFILLMENT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(pool.Close)

	s := NewInventoryStore(pool)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE order_items, orders, products`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}

func TestInventoryStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	expiry := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	for _, p := range []*product.Product{
		{ID: 1, Name: "USB Cable", Category: "standard", Available: 30, LeadTimeDays: 15},
		{ID: 2, Name: "Milk", Category: "perishable", Available: 6, ExpiryDate: &expiry},
	} {
		if err := s.PutProduct(ctx, p); err != nil {
			t.Fatalf("PutProduct: %v", err)
		}
	}
	if err := s.PutOrder(ctx, 10, 1, 2); err != nil {
		t.Fatalf("PutOrder: %v", err)
	}

	o, err := s.LoadOrderWithItems(ctx, 10)
	if err != nil {
		t.Fatalf("LoadOrderWithItems: %v", err)
	}
	if len(o.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(o.Items))
	}
	if o.Items[0].SeasonStart != nil {
		t.Fatalf("season start = %v, want nil", o.Items[0].SeasonStart)
	}
	if o.Items[1].ExpiryDate == nil || !o.Items[1].ExpiryDate.Equal(expiry) {
		t.Fatalf("expiry = %v, want %v", o.Items[1].ExpiryDate, expiry)
	}

	item := o.Items[0]
	item.Available = 29
	item.LeadTimeDays = 20
	if err := s.SaveProduct(ctx, item); err != nil {
		t.Fatalf("SaveProduct: %v", err)
	}
	got, err := s.Product(ctx, 1)
	if err != nil {
		t.Fatalf("Product: %v", err)
	}
	if got.Available != 29 || got.LeadTimeDays != 20 {
		t.Fatalf("product = %+v", got)
	}
}

func TestInventoryStoreNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.LoadOrderWithItems(ctx, 404); !errors.Is(err, domorder.ErrNotFound) {
		t.Fatalf("expected order.ErrNotFound, got %v", err)
	}
	if err := s.SaveProduct(ctx, &product.Product{ID: 404}); !errors.Is(err, product.ErrNotFound) {
		t.Fatalf("expected product.ErrNotFound, got %v", err)
	}
}
