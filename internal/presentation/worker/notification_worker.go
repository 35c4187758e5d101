package workerpresentation

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	appnotification "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/notification"
	domnotification "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/notification"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const workerService = "notification_worker"

type DeliverUseCase = application.UseCase[domnotification.Message, *appnotification.DeliveryResult]

// NotificationWorker consumes notification events from the outbox and hands them
// to the delivery use case.
type NotificationWorker struct {
	subscriber domoutbox.Subscriber
	useCase    DeliverUseCase

	log     observability.Logger
	tracer  observability.Tracer
	ignored observability.Counter // usecase_requests_total{use_case,outcome}
}

func NewNotificationWorker(subscriber domoutbox.Subscriber, useCase DeliverUseCase, tel observability.Observability) *NotificationWorker {
	logger, tracer, metrics := observability.Resolve(tel)
	return &NotificationWorker{
		subscriber: subscriber,
		useCase:    useCase,
		log:        logger.With(observability.F("service", workerService)),
		tracer:     tracer,
		ignored:    metrics.Counter(observability.MUsecaseRequests),
	}
}

func (w *NotificationWorker) Start() {
	if w.subscriber == nil || w.useCase == nil {
		return
	}
	_ = domoutbox.SubscribeAll(w.subscriber, w.handle, domnotification.EventNames()...)
}

func (w *NotificationWorker) handle(ctx context.Context, e domoutbox.Event) error {
	const useCase = "notification.worker.event"
	evt, ok := e.(domnotification.Event)
	if !ok {
		w.ignored.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", "ignored"),
		)
		return nil
	}
	msg := evt.Message()

	ctx, span := w.tracer.Start(ctx, "Worker.Notification",
		attribute.String("use_case", useCase),
		attribute.String("event", e.EventName()),
		attribute.String("notification.event_id", msg.EventID),
	)
	defer span.End()

	ctx = WithEventContext(ctx, w.log, trace.SpanContextFromContext(ctx), map[string]string{
		"event_id": msg.EventID,
		"event":    e.EventName(),
	})

	if _, err := w.useCase.Execute(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DELIVERY_FAILED")
		return fmt.Errorf("worker: deliver %s: %w", msg.EventID, err)
	}
	span.SetStatus(codes.Ok, "OK")
	return nil
}
