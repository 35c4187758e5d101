package notification

import (
	"context"

	domnotification "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

// LogSender writes each notification as a structured log line.
type LogSender struct {
	log observability.Logger
}

func NewLogSender(logger observability.Logger) *LogSender {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &LogSender{log: logger.With(observability.F("sink", "log"))}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(ctx context.Context, msg domnotification.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fields := []observability.Field{
		observability.F("event_id", msg.EventID),
		observability.F("kind", string(msg.Kind)),
		observability.F("product_name", msg.ProductName),
	}
	switch msg.Kind {
	case domnotification.KindDelay:
		fields = append(fields, observability.F("lead_time_days", msg.LeadTimeDays))
	case domnotification.KindExpiration:
		if msg.ExpiryDate != nil {
			fields = append(fields, observability.F("expiry_date", *msg.ExpiryDate))
		}
	}
	logctx.FromOr(ctx, s.log).Info("notification_sent", fields...)
	return nil
}
