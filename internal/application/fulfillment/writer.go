package fulfillment

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

type saveRequest struct {
	ctx     context.Context
	product *product.Product
	reply   chan error
}

// writer owns the store for the lifetime of one order. Policies run concurrently
// but every SaveProduct is executed by the writer goroutine, one at a time.
type writer struct {
	store ProductSaver
	reqs  chan saveRequest
	done  chan struct{}
	once  sync.Once
}

func newWriter(store ProductSaver) *writer {
	w := &writer{
		store: store,
		reqs:  make(chan saveRequest),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *writer) run() {
	defer close(w.done)
	for req := range w.reqs {
		if err := req.ctx.Err(); err != nil {
			req.reply <- err
			continue
		}
		req.reply <- w.store.SaveProduct(req.ctx, req.product)
	}
}

// SaveProduct queues a snapshot of p and blocks until the writer has persisted it
// or ctx is done.
func (w *writer) SaveProduct(ctx context.Context, p *product.Product) error {
	req := saveRequest{ctx: ctx, product: p.Clone(), reply: make(chan error, 1)}
	select {
	case w.reqs <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting requests and waits for the writer goroutine to exit.
// Callers must not call SaveProduct after Close.
func (w *writer) Close() {
	w.once.Do(func() { close(w.reqs) })
	<-w.done
}
