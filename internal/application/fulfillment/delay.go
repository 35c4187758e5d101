package fulfillment

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

// delayNotifier is the restock-delay procedure shared by the standard and seasonal policies.
type delayNotifier struct {
	notifier Notifier
}

// notifyDelay records the lead time, persists it, then emits the delay notification.
// Every call notifies; repeated calls with an unchanged lead time are not deduplicated.
func (d delayNotifier) notifyDelay(ctx context.Context, saver ProductSaver, leadTimeDays int, p *product.Product) error {
	p.LeadTimeDays = leadTimeDays
	if err := saver.SaveProduct(ctx, p); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d.notifier.SendDelayNotification(ctx, leadTimeDays, p.Name)
	return nil
}
