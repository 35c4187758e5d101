package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	fulfillmentService  = "fulfillment-service"
	useCaseOrderProcess = "order.process"
	spanPrefix          = "UC."
	policySpanPrefix    = "Policy."
	unmatchedCategory   = "unmatched"
)

var (
	ErrNotFound = domorder.ErrNotFound
	ErrStore    = errors.New("fulfillment: store failure")
)

type ProcessOrderInput struct {
	OrderID int64
}

type ProcessOrderResult struct {
	OrderID int64 `json:"id"`
}

// ProcessOrderUseCase loads an order and runs every item through its category policy.
type ProcessOrderUseCase struct {
	store      InventoryStore
	dispatcher *Dispatcher

	log    observability.Logger
	tracer observability.Tracer

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	decisions    observability.Counter   // fulfillment_item_decisions_total{category,decision}
}

func NewProcessOrderUseCase(store InventoryStore, dispatcher *Dispatcher, tel observability.Observability) *ProcessOrderUseCase {
	logger, tracer, metrics := observability.Resolve(tel)
	if dispatcher == nil {
		dispatcher = NewDispatcher()
	}
	return &ProcessOrderUseCase{
		store:        store,
		dispatcher:   dispatcher,
		log:          logger.With(observability.F("service", fulfillmentService)),
		tracer:       tracer,
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		decisions:    metrics.Counter(observability.MItemDecisions),
	}
}

// Execute processes the order. Items are evaluated concurrently and the call returns
// once all of them have finished or the first fatal error has cancelled the rest.
func (uc *ProcessOrderUseCase) Execute(ctx context.Context, cmd ProcessOrderInput) (_ *ProcessOrderResult, err error) {
	ctx, logger := logctx.Enrich(ctx, uc.log,
		observability.F("use_case", useCaseOrderProcess),
		observability.F("order_id", cmd.OrderID),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"ProcessOrder",
		attribute.String("use_case", useCaseOrderProcess),
		attribute.Int64("order.id", cmd.OrderID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	items := 0

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseOrderProcess),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseOrderProcess),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("items", items),
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

	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	ord, lerr := uc.store.LoadOrderWithItems(ctx, cmd.OrderID)
	if lerr != nil {
		switch {
		case errors.Is(lerr, domorder.ErrNotFound):
			outcome, statusText = "not_found", "ORDER_NOT_FOUND"
			return nil, ErrNotFound
		case isContextError(ctx, lerr):
			outcome, statusText = "error", "CONTEXT_CANCELED"
			return nil, contextError(ctx, lerr)
		default:
			outcome, statusText = "error", "STORE_LOAD_FAILED"
			return nil, wrapStoreError(lerr)
		}
	}
	items = len(ord.Items)
	span.SetAttributes(attribute.Int("order.items", items))

	w := newWriter(uc.store)
	g, gctx := errgroup.WithContext(ctx)
	for _, item := range ord.Items {
		g.Go(func() error {
			return uc.processItem(gctx, logger, w, item)
		})
	}
	perr := g.Wait()
	w.Close()

	if perr != nil {
		if isContextError(ctx, perr) {
			outcome, statusText = "error", "CONTEXT_CANCELED"
			return nil, contextError(ctx, perr)
		}
		outcome, statusText = "error", "STORE_SAVE_FAILED"
		return nil, wrapStoreError(perr)
	}

	span.AddEvent("order.processed", trace.WithAttributes(attribute.Int64("order.id", ord.ID)))
	return &ProcessOrderResult{OrderID: ord.ID}, nil
}

// ProcessOrder is the direct-call form of Execute.
func (uc *ProcessOrderUseCase) ProcessOrder(ctx context.Context, orderID int64) (*ProcessOrderResult, error) {
	return uc.Execute(ctx, ProcessOrderInput{OrderID: orderID})
}

func (uc *ProcessOrderUseCase) processItem(ctx context.Context, logger observability.Logger, saver ProductSaver, p *product.Product) error {
	policy, ok := uc.dispatcher.Select(p)
	if !ok {
		uc.decisions.Add(1,
			observability.L("category", unmatchedCategory),
			observability.L("decision", string(DecisionSkipped)),
		)
		logger.Debug("item_skipped",
			observability.F("product_id", p.ID),
			observability.F("category", p.Category),
		)
		return nil
	}

	category := string(policy.Category())
	ctx, span := uc.tracer.Start(ctx, policySpanPrefix+category,
		attribute.Int64("product.id", p.ID),
		attribute.String("product.category", category),
	)
	defer span.End()

	decision, err := policy.Apply(ctx, saver, p)
	span.SetAttributes(attribute.String("fulfillment.decision", string(decision)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "POLICY_FAILED")
		return err
	}

	uc.decisions.Add(1,
		observability.L("category", category),
		observability.L("decision", string(decision)),
	)
	logger.Debug("item_processed",
		observability.F("product_id", p.ID),
		observability.F("category", category),
		observability.F("decision", string(decision)),
		observability.F("available", p.Available),
		observability.F("lead_time_days", p.LeadTimeDays),
	)
	return nil
}

// isContextError reports whether err stems from the caller's context being done.
func isContextError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func contextError(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}
	return context.Canceled
}

func wrapStoreError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStore, err)
}
