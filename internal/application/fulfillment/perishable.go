package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

// PerishablePolicy ships unexpired stock; anything expired or exhausted is zeroed and reported.
type PerishablePolicy struct {
	categoryMatcher
	clock    Clock
	notifier Notifier
}

func NewPerishablePolicy(clock Clock, notifier Notifier) *PerishablePolicy {
	if clock == nil {
		clock = SystemClock
	}
	return &PerishablePolicy{
		categoryMatcher: categoryMatcher(product.CategoryPerishable),
		clock:           clock,
		notifier:        notifier,
	}
}

func (pp *PerishablePolicy) Apply(ctx context.Context, saver ProductSaver, p *product.Product) (Decision, error) {
	now := pp.clock.Now()

	if p.InStock() && after(p.ExpiryDate, now) {
		d, err := ship(ctx, saver, p)
		if err != nil {
			return d, fmt.Errorf("perishable: ship: %w", err)
		}
		return d, nil
	}

	if err := ctx.Err(); err != nil {
		return DecisionExpired, err
	}
	var expiry time.Time
	if p.ExpiryDate != nil {
		expiry = *p.ExpiryDate
	}
	pp.notifier.SendExpirationNotification(ctx, p.Name, expiry)
	p.Exhaust()
	if err := saver.SaveProduct(ctx, p); err != nil {
		return DecisionExpired, fmt.Errorf("perishable: expire: %w", err)
	}
	return DecisionExpired, nil
}
