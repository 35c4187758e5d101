package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/fulfillment"
	appnotification "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/notification"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/config"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	infranotification "github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/notification"
	obsinfra "github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/otelsdk"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/seed"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is stamped at build time.
var Version = "dev"

const instrumentationScope = "github.com/Zhima-Mochi/minishop-fulfillment"

type store interface {
	fulfillment.InventoryStore
	seed.Target
}

// Runtime is the fully wired service: stores, bus, use cases and telemetry.
type Runtime struct {
	Config       config.Config
	Logger       *zap.Logger
	Tel          observability.Observability
	Registry     *prometheus.Registry
	ProcessOrder *fulfillment.ProcessOrderUseCase

	providers *otelsdk.Providers
	bus       *outbox.Bus
	worker    *workerpresentation.NotificationWorker
	closers   []func(context.Context) error
}

// Build wires every component for cfg. The returned runtime must be closed.
func Build(ctx context.Context, cfg config.Config) (_ *Runtime, err error) {
	rt := &Runtime{Config: cfg}
	defer func() {
		if err != nil {
			_ = rt.Close(context.WithoutCancel(ctx))
		}
	}()

	providers, otelErr := otelsdk.Setup(ctx, otelsdk.Options{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.OTelEndpoint,
		AuthHeader:     cfg.OTelAuthHeader,
	})
	if providers == nil {
		return nil, fmt.Errorf("cli: telemetry: %w", otelErr)
	}
	rt.providers = providers
	rt.closers = append(rt.closers, providers.Shutdown)

	var tee zapcore.Core
	if providers.Logger != nil {
		tee = otelzap.NewCore(instrumentationScope, otelzap.WithLoggerProvider(providers.Logger))
	}
	base, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Tee:     tee,
	})
	if err != nil {
		return nil, fmt.Errorf("cli: logger: %w", err)
	}
	rt.Logger = base
	rt.closers = append(rt.closers, func(context.Context) error {
		_ = base.Sync()
		return nil
	})
	if otelErr != nil {
		base.Warn("otel_exporter_unavailable", zap.Error(otelErr))
	}

	rt.Registry = prometheus.NewRegistry()
	rt.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	counters, histograms := prometrics.Instruments(prometrics.New(rt.Registry, "", ""))
	rt.Tel = obsinfra.New(
		obsinfra.WithTracer(oteltrace.NewWithProvider(providers.Tracer, instrumentationScope)),
		obsinfra.WithLogger(zaplogger.New(base)),
		obsinfra.WithInstruments(counters, histograms),
	)

	inventory, err := rt.openStore(ctx)
	if err != nil {
		return nil, err
	}

	rt.bus = outbox.NewBus(rt.Tel.Logger(),
		outbox.WithBuffer(cfg.BusBuffer),
		outbox.WithConcurrency(cfg.BusConcurrency),
	)

	senders := []appnotification.Sender{infranotification.NewLogSender(rt.Tel.Logger())}
	if len(cfg.KafkaBrokers) > 0 {
		w, kerr := infranotification.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ServiceName, providers.Tracer)
		if kerr != nil {
			return nil, fmt.Errorf("cli: kafka: %w", kerr)
		}
		kafkaSender := infranotification.NewKafkaSender(w)
		senders = append(senders, kafkaSender)
		rt.closers = append(rt.closers, func(context.Context) error { return kafkaSender.Close() })
	}
	deliver := appnotification.NewDeliverUseCase(rt.Tel, senders...)
	rt.worker = workerpresentation.NewNotificationWorker(rt.bus, deliver, rt.Tel)

	// Closers run in reverse: the bus drains before the senders and providers go away.
	rt.closers = append(rt.closers, func(ctx context.Context) error {
		rt.bus.Stop(ctx)
		return nil
	})

	notifier := infranotification.NewBusNotifier(rt.bus, rt.Tel)
	dispatcher := fulfillment.NewDefaultDispatcher(fulfillment.SystemClock, notifier)
	rt.ProcessOrder = fulfillment.NewProcessOrderUseCase(inventory, dispatcher, rt.Tel)

	return rt, nil
}

func (rt *Runtime) openStore(ctx context.Context) (store, error) {
	var s store
	switch rt.Config.Store {
	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, rt.Config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("cli: store: %w", err)
		}
		rt.closers = append(rt.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		pg := postgres.NewInventoryStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("cli: store: %w", err)
		}
		s = pg
	default:
		s = memory.NewInventoryStore()
	}

	fixture, seeded, err := rt.fixture()
	if err != nil {
		return nil, err
	}
	if seeded {
		if err := seed.Apply(ctx, s, fixture); err != nil {
			return nil, fmt.Errorf("cli: seed: %w", err)
		}
		rt.Logger.Info("store_seeded",
			zap.String("store", rt.Config.Store),
			zap.Int("products", len(fixture.Products)),
			zap.Int("orders", len(fixture.Orders)),
		)
	}
	return s, nil
}

// fixture returns the seed data to load. The memory store falls back to the demo
// catalogue; postgres is only seeded from an explicit file.
func (rt *Runtime) fixture() (seed.Fixture, bool, error) {
	if rt.Config.SeedFile != "" {
		f, err := seed.Load(rt.Config.SeedFile)
		if err != nil {
			return seed.Fixture{}, false, fmt.Errorf("cli: seed: %w", err)
		}
		return f, true, nil
	}
	if rt.Config.Store == config.StorePostgres {
		return seed.Fixture{}, false, nil
	}
	return seed.Default(time.Now()), true, nil
}

// Start launches the event bus and subscribes the notification worker.
func (rt *Runtime) Start(ctx context.Context) {
	rt.worker.Start()
	rt.bus.Start(ctx)
}

// HTTPHandler serves the API plus /metrics from this runtime's registry.
func (rt *Runtime) HTTPHandler() http.Handler {
	api := httppresentation.NewHandler(rt.ProcessOrder, rt.Tel.Logger(), rt.Tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{Registry: rt.Registry}))
	mux.Handle("/", api.Router())
	return mux
}

// Close releases resources in reverse order of acquisition.
func (rt *Runtime) Close(ctx context.Context) error {
	var err error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, rt.closers[i](ctx))
	}
	rt.closers = nil
	return err
}
