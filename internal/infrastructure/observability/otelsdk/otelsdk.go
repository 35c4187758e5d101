// Package otelsdk wires the OpenTelemetry SDK providers for traces and logs.
package otelsdk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	logsPath      = "/otlp/v1/logs"
	tracesPath    = "/otlp/v1/traces"
	exportTimeout = 30 * time.Second
	maxQueueSize  = 2048
)

type Options struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint is the OTLP/HTTP host:port. Empty keeps spans in-process only.
	Endpoint   string
	AuthHeader string
}

// Providers holds the SDK providers and a joined shutdown for both.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	// Logger is nil when no exporter endpoint is configured.
	Logger *sdklog.LoggerProvider

	shutdownFuncs []func(context.Context) error
}

func (p *Providers) Shutdown(ctx context.Context) error {
	var err error
	for _, fn := range p.shutdownFuncs {
		err = errors.Join(err, fn(ctx))
	}
	p.shutdownFuncs = nil
	return err
}

// Setup installs a global tracer provider and W3C propagators. Exporters are only
// created when opts.Endpoint is set; export failures are joined into the returned error
// while the providers stay usable.
func Setup(ctx context.Context, opts Options) (*Providers, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(opts.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("otelsdk: resource: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	p := &Providers{}
	var setupErr error

	traceOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
	}
	if opts.Endpoint != "" {
		exporter, expErr := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(opts.Endpoint),
			otlptracehttp.WithURLPath(tracesPath),
			otlptracehttp.WithHeaders(authHeaders(opts.AuthHeader)),
		)
		if expErr != nil {
			setupErr = errors.Join(setupErr, fmt.Errorf("otlp trace exporter: %w", expErr))
		} else {
			traceOpts = append(traceOpts, sdktrace.WithSpanProcessor(
				sdktrace.NewBatchSpanProcessor(exporter,
					sdktrace.WithExportTimeout(exportTimeout),
					sdktrace.WithMaxQueueSize(maxQueueSize),
				),
			))
		}
	}
	p.Tracer = sdktrace.NewTracerProvider(traceOpts...)
	otel.SetTracerProvider(p.Tracer)
	p.shutdownFuncs = append(p.shutdownFuncs, p.Tracer.Shutdown)

	if opts.Endpoint != "" {
		exporter, expErr := otlploghttp.New(ctx,
			otlploghttp.WithEndpoint(opts.Endpoint),
			otlploghttp.WithURLPath(logsPath),
			otlploghttp.WithHeaders(authHeaders(opts.AuthHeader)),
		)
		if expErr != nil {
			setupErr = errors.Join(setupErr, fmt.Errorf("otlp log exporter: %w", expErr))
		} else {
			p.Logger = sdklog.NewLoggerProvider(
				sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter,
					sdklog.WithExportTimeout(exportTimeout),
					sdklog.WithMaxQueueSize(maxQueueSize),
				)),
				sdklog.WithResource(res),
			)
			global.SetLoggerProvider(p.Logger)
			p.shutdownFuncs = append(p.shutdownFuncs, p.Logger.Shutdown)
		}
	}

	return p, setupErr
}

func authHeaders(v string) map[string]string {
	if v == "" {
		return nil
	}
	return map[string]string{"Authorization": v}
}
