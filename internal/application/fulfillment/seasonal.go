package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

const day = 24 * time.Hour

// SeasonalPolicy sells only inside the product's season and decides, when out of stock,
// whether a restock can still land before the season closes.
type SeasonalPolicy struct {
	categoryMatcher
	clock    Clock
	notifier Notifier
	delay    delayNotifier
}

func NewSeasonalPolicy(clock Clock, notifier Notifier) *SeasonalPolicy {
	if clock == nil {
		clock = SystemClock
	}
	return &SeasonalPolicy{
		categoryMatcher: categoryMatcher(product.CategorySeasonal),
		clock:           clock,
		notifier:        notifier,
		delay:           delayNotifier{notifier: notifier},
	}
}

// Apply evaluates the branches in order; a missing season bound never satisfies a
// comparison against it.
func (sp *SeasonalPolicy) Apply(ctx context.Context, saver ProductSaver, p *product.Product) (Decision, error) {
	now := sp.clock.Now()

	if p.InStock() && before(p.SeasonStart, now) && after(p.SeasonEnd, now) {
		d, err := ship(ctx, saver, p)
		if err != nil {
			return d, fmt.Errorf("seasonal: ship: %w", err)
		}
		return d, nil
	}

	restockAt := now.Add(time.Duration(p.LeadTimeDays) * day)
	switch {
	case before(p.SeasonEnd, restockAt):
		if err := ctx.Err(); err != nil {
			return DecisionOutOfSeason, err
		}
		sp.notifier.SendOutOfStockNotification(ctx, p.Name)
		p.Exhaust()
		if err := saver.SaveProduct(ctx, p); err != nil {
			return DecisionOutOfSeason, fmt.Errorf("seasonal: out of season: %w", err)
		}
		return DecisionOutOfSeason, nil
	case after(p.SeasonStart, now):
		if err := ctx.Err(); err != nil {
			return DecisionSeasonNotStarted, err
		}
		sp.notifier.SendOutOfStockNotification(ctx, p.Name)
		if err := saver.SaveProduct(ctx, p); err != nil {
			return DecisionSeasonNotStarted, fmt.Errorf("seasonal: not started: %w", err)
		}
		return DecisionSeasonNotStarted, nil
	default:
		if err := sp.delay.notifyDelay(ctx, saver, p.LeadTimeDays, p); err != nil {
			return DecisionDelayed, fmt.Errorf("seasonal: delay: %w", err)
		}
		return DecisionDelayed, nil
	}
}

// before reports whether bound is set and strictly earlier than t.
func before(bound *time.Time, t time.Time) bool {
	return bound != nil && bound.Before(t)
}

// after reports whether bound is set and strictly later than t.
func after(bound *time.Time, t time.Time) bool {
	return bound != nil && bound.After(t)
}
