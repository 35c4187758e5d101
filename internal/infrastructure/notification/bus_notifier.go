package notification

import (
	"context"
	"time"

	domnotification "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/notification"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"

	"github.com/google/uuid"
)

const (
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond
)

// BusNotifier turns fulfillment notifications into outbox events. Publishing
// failures are logged and counted, never returned.
type BusNotifier struct {
	publisher domoutbox.Publisher
	newID     func() string

	log          observability.Logger
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewBusNotifier(publisher domoutbox.Publisher, tel observability.Observability) *BusNotifier {
	logger, _, metrics := observability.Resolve(tel)
	return &BusNotifier{
		publisher:    publisher,
		newID:        uuid.NewString,
		log:          logger.With(observability.F("component", "bus_notifier")),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

func (n *BusNotifier) SendDelayNotification(ctx context.Context, leadTimeDays int, productName string) {
	n.publish(ctx, domnotification.NewDelayNotificationEvent(n.newID(), leadTimeDays, productName))
}

func (n *BusNotifier) SendOutOfStockNotification(ctx context.Context, productName string) {
	n.publish(ctx, domnotification.NewOutOfStockNotificationEvent(n.newID(), productName))
}

func (n *BusNotifier) SendExpirationNotification(ctx context.Context, productName string, expiryDate time.Time) {
	n.publish(ctx, domnotification.NewExpirationNotificationEvent(n.newID(), productName, expiryDate))
}

func (n *BusNotifier) publish(ctx context.Context, e domnotification.Event) {
	endpoint := e.EventName()
	logger := logctx.FromOr(ctx, n.log).With(
		observability.F("event", endpoint),
		observability.F("event_id", e.Message().EventID),
	)
	if n.publisher == nil {
		logger.Warn("notification_dropped_no_publisher")
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	start := time.Now()
	outcome := "success"
	err := n.publisher.Publish(pubCtx, e)
	switch {
	case err != nil && pubCtx.Err() != nil:
		outcome = "canceled"
	case err != nil:
		outcome = "error"
	}

	n.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	n.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
	)

	if err != nil {
		logger.Warn("notification_publish_failed", observability.F("error", err))
		return
	}
	logger.Debug("notification_published")
}
