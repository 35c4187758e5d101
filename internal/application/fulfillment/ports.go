package fulfillment

import (
	"context"
	"time"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

// ProductSaver persists a single mutated product.
type ProductSaver interface {
	SaveProduct(ctx context.Context, p *product.Product) error
}

// InventoryStore is the outbound persistence port of the engine.
// LoadOrderWithItems returns domorder.ErrNotFound when the order does not exist.
type InventoryStore interface {
	ProductSaver
	LoadOrderWithItems(ctx context.Context, orderID int64) (*domorder.Order, error)
}

// Notifier emits customer/ops notifications. Delivery is fire-and-forget:
// implementations report their own failures and never block the engine on them.
type Notifier interface {
	SendDelayNotification(ctx context.Context, leadTimeDays int, productName string)
	SendOutOfStockNotification(ctx context.Context, productName string)
	SendExpirationNotification(ctx context.Context, productName string, expiryDate time.Time)
}

type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)
