package fulfillment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

func TestWriterSerializesConcurrentSaves(t *testing.T) {
	store := newFakeStore()
	store.delay = time.Millisecond
	w := newWriter(store)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if err := w.SaveProduct(context.Background(), &product.Product{ID: id, Name: "p"}); err != nil {
				t.Errorf("SaveProduct(%d): %v", id, err)
			}
		}(int64(i))
	}
	wg.Wait()
	w.Close()

	if store.overlap.Load() {
		t.Fatal("store saw concurrent SaveProduct calls")
	}
	if got := store.saveCount(); got != 20 {
		t.Fatalf("saves = %d, want 20", got)
	}
}

func TestWriterSavesSnapshot(t *testing.T) {
	store := newFakeStore()
	w := newWriter(store)
	defer w.Close()

	p := &product.Product{ID: 1, Name: "Milk", Available: 5}
	if err := w.SaveProduct(context.Background(), p); err != nil {
		t.Fatalf("SaveProduct: %v", err)
	}
	p.Available = 0

	if got := store.product(1).Available; got != 5 {
		t.Fatalf("stored available = %d, want 5", got)
	}
}

func TestWriterHonoursCancellation(t *testing.T) {
	store := newFakeStore()
	w := newWriter(store)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.SaveProduct(ctx, &product.Product{ID: 1, Name: "Milk"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if store.saveCount() != 0 {
		t.Fatal("cancelled save reached the store")
	}
}

func TestWriterCloseIsIdempotent(t *testing.T) {
	w := newWriter(newFakeStore())
	w.Close()
	w.Close()
}
