package product

import (
	"errors"
	"testing"
	"time"
)

func TestCategoryMatchesIgnoresCase(t *testing.T) {
	cases := []struct {
		category Category
		tag      string
		want     bool
	}{
		{CategoryStandard, "standard", true},
		{CategoryStandard, "STANDARD", true},
		{CategorySeasonal, "Seasonal", true},
		{CategoryPerishable, "perishable ", false},
		{CategoryPerishable, "standard", false},
		{CategoryStandard, "", false},
	}
	for _, tc := range cases {
		if got := tc.category.Matches(tc.tag); got != tc.want {
			t.Errorf("%q.Matches(%q) = %v, want %v", tc.category, tc.tag, got, tc.want)
		}
	}
}

func TestTakeNeverGoesNegative(t *testing.T) {
	p := &Product{Name: "USB Cable", Available: 1}
	if err := p.Take(); err != nil {
		t.Fatalf("first take: %v", err)
	}
	if err := p.Take(); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if p.Available != 0 {
		t.Fatalf("available = %d, want 0", p.Available)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		p    Product
		want error
	}{
		{"ok", Product{Name: "Milk", Available: 3, LeadTimeDays: 2}, nil},
		{"empty name", Product{Available: 1}, ErrInvalidName},
		{"negative stock", Product{Name: "Milk", Available: -1}, ErrInvalidQuantity},
		{"negative lead time", Product{Name: "Milk", LeadTimeDays: -4}, ErrInvalidLeadTime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.p.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCloneDetachesTimestamps(t *testing.T) {
	expiry := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := &Product{ID: 7, Name: "Butter", ExpiryDate: &expiry}

	c := p.Clone()
	*c.ExpiryDate = c.ExpiryDate.AddDate(0, 0, 1)
	c.Available = 10

	if !p.ExpiryDate.Equal(expiry) {
		t.Fatalf("original expiry mutated: %v", p.ExpiryDate)
	}
	if p.Available != 0 {
		t.Fatalf("original available mutated: %d", p.Available)
	}
}
