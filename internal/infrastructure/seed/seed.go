package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

var ErrInvalidFixture = errors.New("seed: invalid fixture")

type Product struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	Available    int        `json:"available"`
	LeadTimeDays int        `json:"leadTimeDays"`
	SeasonStart  *time.Time `json:"seasonStartDate,omitempty"`
	SeasonEnd    *time.Time `json:"seasonEndDate,omitempty"`
	ExpiryDate   *time.Time `json:"expiryDate,omitempty"`
}

type Order struct {
	ID         int64   `json:"id"`
	ProductIDs []int64 `json:"productIds"`
}

// Fixture is the initial catalogue and order book loaded into a store.
type Fixture struct {
	Products []Product `json:"products"`
	Orders   []Order   `json:"orders"`
}

// Target is a store able to receive fixture data.
type Target interface {
	PutProduct(ctx context.Context, p *product.Product) error
	PutOrder(ctx context.Context, orderID int64, productIDs ...int64) error
}

func Load(path string) (Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("seed: read %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return Fixture{}, fmt.Errorf("%w: %s: %w", ErrInvalidFixture, path, err)
	}
	return f, nil
}

// Apply writes every product, then every order, into target.
func Apply(ctx context.Context, target Target, f Fixture) error {
	for _, p := range f.Products {
		if err := target.PutProduct(ctx, p.toDomain()); err != nil {
			return fmt.Errorf("seed: product %d: %w", p.ID, err)
		}
	}
	for _, o := range f.Orders {
		if err := target.PutOrder(ctx, o.ID, o.ProductIDs...); err != nil {
			return fmt.Errorf("seed: order %d: %w", o.ID, err)
		}
	}
	return nil
}

func (p Product) toDomain() *product.Product {
	return &product.Product{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		Available:    p.Available,
		LeadTimeDays: p.LeadTimeDays,
		SeasonStart:  p.SeasonStart,
		SeasonEnd:    p.SeasonEnd,
		ExpiryDate:   p.ExpiryDate,
	}
}

// Default is the demo catalogue: one order holding one product per branch worth exercising.
func Default(now time.Time) Fixture {
	days := func(n int) *time.Time {
		t := now.AddDate(0, 0, n)
		return &t
	}
	return Fixture{
		Products: []Product{
			{ID: 1, Name: "USB Cable", Category: string(product.CategoryStandard), Available: 30, LeadTimeDays: 15},
			{ID: 2, Name: "USB Dongle", Category: string(product.CategoryStandard), Available: 0, LeadTimeDays: 10},
			{ID: 3, Name: "Butter", Category: string(product.CategoryPerishable), Available: 30, LeadTimeDays: 15, ExpiryDate: days(26)},
			{ID: 4, Name: "Milk", Category: string(product.CategoryPerishable), Available: 6, LeadTimeDays: 15, ExpiryDate: days(-2)},
			{ID: 5, Name: "Watermelon", Category: string(product.CategorySeasonal), Available: 30, LeadTimeDays: 15, SeasonStart: days(-2), SeasonEnd: days(58)},
			{ID: 6, Name: "Grapes", Category: string(product.CategorySeasonal), Available: 30, LeadTimeDays: 15, SeasonStart: days(180), SeasonEnd: days(240)},
		},
		Orders: []Order{
			{ID: 1, ProductIDs: []int64{1, 2, 3, 4, 5, 6}},
			{ID: 2},
		},
	}
}
