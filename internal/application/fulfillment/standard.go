package fulfillment

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

// StandardPolicy ships from stock and otherwise announces the restock delay.
type StandardPolicy struct {
	categoryMatcher
	delay delayNotifier
}

func NewStandardPolicy(notifier Notifier) *StandardPolicy {
	return &StandardPolicy{
		categoryMatcher: categoryMatcher(product.CategoryStandard),
		delay:           delayNotifier{notifier: notifier},
	}
}

func (sp *StandardPolicy) Apply(ctx context.Context, saver ProductSaver, p *product.Product) (Decision, error) {
	switch {
	case p.InStock():
		d, err := ship(ctx, saver, p)
		if err != nil {
			return d, fmt.Errorf("standard: ship: %w", err)
		}
		return d, nil
	case p.LeadTimeDays > 0:
		if err := sp.delay.notifyDelay(ctx, saver, p.LeadTimeDays, p); err != nil {
			return DecisionDelayed, fmt.Errorf("standard: delay: %w", err)
		}
		return DecisionDelayed, nil
	default:
		return DecisionNoAction, nil
	}
}
