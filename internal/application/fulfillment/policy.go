package fulfillment

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

// Decision names the branch a policy took for one item.
type Decision string

const (
	DecisionShipped          Decision = "shipped"
	DecisionDelayed          Decision = "delayed"
	DecisionNoAction         Decision = "no_action"
	DecisionOutOfSeason      Decision = "out_of_season"
	DecisionSeasonNotStarted Decision = "season_not_started"
	DecisionExpired          Decision = "expired"
	DecisionSkipped          Decision = "skipped"
)

// Policy decides the inventory mutation and notification for one product.
// Apply must only touch the product it is given and persist through saver.
type Policy interface {
	Category() product.Category
	CanHandle(p *product.Product) bool
	Apply(ctx context.Context, saver ProductSaver, p *product.Product) (Decision, error)
}

// categoryMatcher implements CanHandle for policies bound to a fixed tag.
type categoryMatcher product.Category

func (c categoryMatcher) Category() product.Category { return product.Category(c) }

func (c categoryMatcher) CanHandle(p *product.Product) bool {
	return p != nil && product.Category(c).Matches(p.Category)
}

// ship takes one unit and persists the product.
func ship(ctx context.Context, saver ProductSaver, p *product.Product) (Decision, error) {
	if err := p.Take(); err != nil {
		return DecisionNoAction, err
	}
	if err := saver.SaveProduct(ctx, p); err != nil {
		return DecisionShipped, err
	}
	return DecisionShipped, nil
}
