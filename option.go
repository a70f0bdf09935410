package gostreams

import (
	"github.com/lucent-labs/gostreams/metrics"
	"go.uber.org/zap"
)

// Options carries the ambient, cross-cutting concerns a handful of
// lifecycle-heavy combinators (the rate-limit family, switchLatest,
// concurrentAsyncExpand, merge) accept via functional options, in the style
// of the pack's config packages rather than a wide constructor parameter
// list.
type Options struct {
	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option configures Options.
type Option func(*Options)

// WithLogger attaches a structured logger. Recovered user-callback panics
// are logged at Warn; lifecycle transitions are not logged. The default is a
// no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.logger = logger }
}

// WithMetrics attaches a Prometheus collector set. Without it, operators
// record into a metrics.Noop() collector, which is registered with no
// registry; see metrics.NewCollector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(o *Options) { o.metrics = collector }
}

func resolveOptions(opts ...Option) Options {
	cfg := Options{logger: zap.NewNop(), metrics: metrics.Noop()}

	for _, apply := range opts {
		apply(&cfg)
	}

	return cfg
}
