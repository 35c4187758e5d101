package observability

import (
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

// Option configures the provider assembled by New.
type Option func(*provider)

func WithTracer(t observability.Tracer) Option {
	return func(p *provider) {
		if t != nil {
			p.tracer = t
		}
	}
}

func WithLogger(l observability.Logger) Option {
	return func(p *provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithInstruments registers metric instruments by key. Nil entries are ignored,
// and keys without an instrument resolve to no-ops.
func WithInstruments(
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) Option {
	return func(p *provider) {
		for k, c := range counters {
			if c != nil {
				p.counters[k] = c
			}
		}
		for k, h := range histograms {
			if h != nil {
				p.histograms[k] = h
			}
		}
	}
}

type provider struct {
	tracer     observability.Tracer
	logger     observability.Logger
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

// New assembles an Observability provider. Every concern defaults to a no-op.
func New(opts ...Option) observability.Observability {
	p := &provider{
		tracer:     observability.NopTracer(),
		logger:     observability.NopLogger(),
		counters:   make(map[observability.MetricKey]observability.Counter),
		histograms: make(map[observability.MetricKey]observability.Histogram),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *provider) Tracer() observability.Tracer { return p.tracer }

func (p *provider) Logger() observability.Logger { return p.logger }

func (p *provider) Metrics() observability.Metrics { return p }

func (p *provider) Counter(name observability.MetricKey) observability.Counter {
	if c, ok := p.counters[name]; ok {
		return c
	}
	return observability.NopCounter()
}

func (p *provider) Histogram(name observability.MetricKey) observability.Histogram {
	if h, ok := p.histograms[name]; ok {
		return h
	}
	return observability.NopHistogram()
}
