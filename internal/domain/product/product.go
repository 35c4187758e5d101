package product

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("product: not found")
	ErrInsufficientStock = errors.New("product: insufficient stock")
	ErrInvalidName       = errors.New("product: name is required")
	ErrInvalidQuantity   = errors.New("product: available quantity must be zero or greater")
	ErrInvalidLeadTime   = errors.New("product: lead time must be zero or greater")
)

// Category selects the fulfillment policy applied to a product.
type Category string

const (
	CategoryStandard   Category = "standard"
	CategorySeasonal   Category = "seasonal"
	CategoryPerishable Category = "perishable"
)

// Matches reports whether tag names this category, ignoring case.
func (c Category) Matches(tag string) bool {
	return strings.EqualFold(string(c), tag)
}

type Product struct {
	ID           int64
	Name         string
	Category     string
	Available    int
	LeadTimeDays int
	SeasonStart  *time.Time
	SeasonEnd    *time.Time
	ExpiryDate   *time.Time
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return ErrInvalidName
	}
	if p.Available < 0 {
		return ErrInvalidQuantity
	}
	if p.LeadTimeDays < 0 {
		return ErrInvalidLeadTime
	}
	return nil
}

// InStock reports whether at least one unit can be shipped.
func (p *Product) InStock() bool {
	return p.Available > 0
}

// Take removes one unit from the available stock.
func (p *Product) Take() error {
	if p.Available <= 0 {
		return ErrInsufficientStock
	}
	p.Available--
	return nil
}

// Exhaust marks the remaining stock as unsellable.
func (p *Product) Exhaust() {
	p.Available = 0
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	clone.SeasonStart = cloneTime(p.SeasonStart)
	clone.SeasonEnd = cloneTime(p.SeasonEnd)
	clone.ExpiryDate = cloneTime(p.ExpiryDate)
	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
