package order

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

func TestNewDropsDuplicateItems(t *testing.T) {
	a := &product.Product{ID: 1, Name: "USB Cable"}
	b := &product.Product{ID: 2, Name: "Milk"}

	o := New(10, []*product.Product{a, nil, b, {ID: 1, Name: "USB Cable copy"}})

	if len(o.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(o.Items))
	}
	if o.Items[0] != a || o.Items[1] != b {
		t.Fatalf("unexpected items: %+v", o.Items)
	}
}

func TestCloneCopiesItems(t *testing.T) {
	o := New(3, []*product.Product{{ID: 1, Name: "Butter", Available: 4}})
	c := o.Clone()
	c.Items[0].Available = 0

	if o.Items[0].Available != 4 {
		t.Fatalf("clone shares item state with original")
	}
}
