package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	domnotification "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	notificationService = "notification-service"
	useCaseDeliver      = "notification.deliver"
	spanPrefix          = "UC."
	defaultSendTimeout  = 5 * time.Second
)

var ErrDelivery = errors.New("notification: delivery failed")

// Sender hands a notification to one delivery channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg domnotification.Message) error
}

type DeliveryResult struct {
	Delivered []string
	Failed    []string
}

// DeliverUseCase fans a notification out to every configured sender.
// A failing sender does not stop the others.
type DeliverUseCase struct {
	senders     []Sender
	sendTimeout time.Duration

	log    observability.Logger
	tracer observability.Tracer

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	delivered    observability.Counter   // notifications_delivered_total{kind,sink,outcome}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewDeliverUseCase(tel observability.Observability, senders ...Sender) *DeliverUseCase {
	logger, tracer, metrics := observability.Resolve(tel)
	active := make([]Sender, 0, len(senders))
	for _, s := range senders {
		if s != nil {
			active = append(active, s)
		}
	}
	return &DeliverUseCase{
		senders:      active,
		sendTimeout:  defaultSendTimeout,
		log:          logger.With(observability.F("service", notificationService)),
		tracer:       tracer,
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		delivered:    metrics.Counter(observability.MNotificationsDelivered),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

func (uc *DeliverUseCase) Execute(ctx context.Context, msg domnotification.Message) (_ *DeliveryResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseDeliver),
		observability.F("kind", string(msg.Kind)),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"DeliverNotification",
		attribute.String("use_case", useCaseDeliver),
		attribute.String("notification.kind", string(msg.Kind)),
		attribute.String("notification.event_id", msg.EventID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	res := &DeliveryResult{}

	defer func() {
		lat := time.Since(start).Seconds()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseDeliver),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat, observability.L("use_case", useCaseDeliver))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("delivered", len(res.Delivered)),
			observability.F("failed", len(res.Failed)),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if msg.ProductName == "" {
		outcome, statusText = "error", "PRODUCT_NAME_REQUIRED"
		return res, fmt.Errorf("notification: validate: %w", errors.New("product name is required"))
	}

	var errs []error
	for _, s := range uc.senders {
		if serr := uc.send(ctx, s, msg); serr != nil {
			res.Failed = append(res.Failed, s.Name())
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), serr))
			continue
		}
		res.Delivered = append(res.Delivered, s.Name())
	}

	if len(errs) > 0 {
		outcome, statusText = "error", "DELIVERY_FAILED"
		if len(res.Delivered) > 0 {
			outcome, statusText = "partial", "PARTIAL_DELIVERY"
		}
		return res, fmt.Errorf("%w: %w", ErrDelivery, errors.Join(errs...))
	}
	return res, nil
}

func (uc *DeliverUseCase) send(ctx context.Context, s Sender, msg domnotification.Message) error {
	sendCtx, cancel := context.WithTimeout(ctx, uc.sendTimeout)
	defer cancel()

	start := time.Now()
	err := s.Send(sendCtx, msg)
	outcome := "success"
	switch {
	case err != nil && sendCtx.Err() != nil:
		outcome = "canceled"
	case err != nil:
		outcome = "error"
	}

	uc.delivered.Add(1,
		observability.L("kind", string(msg.Kind)),
		observability.L("sink", s.Name()),
		observability.L("outcome", outcome),
	)
	uc.extCounter.Add(1,
		observability.L("peer", s.Name()),
		observability.L("endpoint", string(msg.Kind)),
		observability.L("outcome", outcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", s.Name()),
		observability.L("endpoint", string(msg.Kind)),
	)
	return err
}
