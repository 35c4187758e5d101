package order

import (
	"errors"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

var ErrNotFound = errors.New("order: not found")

type Order struct {
	ID    int64
	Items []*product.Product
}

// New builds an order whose items are unique by product id; later duplicates are dropped.
func New(id int64, items []*product.Product) *Order {
	seen := make(map[int64]struct{}, len(items))
	unique := make([]*product.Product, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		unique = append(unique, item)
	}
	return &Order{ID: id, Items: unique}
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	items := make([]*product.Product, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, item.Clone())
	}
	return &Order{ID: o.ID, Items: items}
}
