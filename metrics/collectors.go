// Package metrics provides the Prometheus instrumentation the rate-limit and
// stream-flattening operator families report through, mirroring the metrics
// wiring style of github.com/BaSui01/agentflow (prometheus/client_golang
// counters/gauges registered per collector instance against a caller-supplied
// registry rather than the global default registry, so multiple gostreams pipelines in
// one process don't collide on metric names).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector groups the counters and gauges a Stream pipeline reports
// through. Callers construct one with NewCollector and register it with
// their own prometheus.Registerer; operators that accept a Collector via
// gostreams.WithMetrics record into it without knowing about Prometheus
// registration at all.
type Collector struct {
	ActiveSubscriptions prometheus.Gauge
	EventsEmitted       *prometheus.CounterVec
	ErrorsEmitted       *prometheus.CounterVec
	TimerFires          *prometheus.CounterVec
	InnerStreams        *prometheus.GaugeVec
}

// NewCollector builds a Collector with the given namespace/subsystem
// prefixing every metric name, and registers it against reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid collisions with other
// collectors in the same process.
func NewCollector(reg prometheus.Registerer, namespace, subsystem string) *Collector {
	c := &Collector{
		ActiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_subscriptions",
			Help:      "Number of currently active stream subscriptions.",
		}),
		EventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_emitted_total",
			Help:      "Number of data events emitted by an operator, by operator name.",
		}, []string{"operator"}),
		ErrorsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_emitted_total",
			Help:      "Number of error events emitted by an operator, by operator name.",
		}, []string{"operator"}),
		TimerFires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "timer_fires_total",
			Help:      "Number of rate-limit timer firings, by operator name.",
		}, []string{"operator"}),
		InnerStreams: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "inner_streams",
			Help:      "Number of currently subscribed inner streams, for the flattening family.",
		}, []string{"operator"}),
	}

	if reg != nil {
		reg.MustRegister(c.ActiveSubscriptions, c.EventsEmitted, c.ErrorsEmitted, c.TimerFires, c.InnerStreams)
	}

	return c
}

// Noop returns a Collector that is safe to record into but registered
// nowhere, used as the default when a caller does not supply one via
// gostreams.WithMetrics.
func Noop() *Collector {
	return NewCollector(nil, "gostreams", "unbound")
}

// Emitted records a data event for the named operator, if c is non-nil.
func (c *Collector) Emitted(operator string) {
	if c == nil {
		return
	}
	c.EventsEmitted.WithLabelValues(operator).Inc()
}

// Errored records an error event for the named operator, if c is non-nil.
func (c *Collector) Errored(operator string) {
	if c == nil {
		return
	}
	c.ErrorsEmitted.WithLabelValues(operator).Inc()
}

// TimerFired records a rate-limit timer firing for the named operator, if c
// is non-nil.
func (c *Collector) TimerFired(operator string) {
	if c == nil {
		return
	}
	c.TimerFires.WithLabelValues(operator).Inc()
}

// SubscriptionOpened increments the active-subscriptions gauge, if c is
// non-nil.
func (c *Collector) SubscriptionOpened() {
	if c == nil {
		return
	}
	c.ActiveSubscriptions.Inc()
}

// SubscriptionClosed decrements the active-subscriptions gauge, if c is
// non-nil.
func (c *Collector) SubscriptionClosed() {
	if c == nil {
		return
	}
	c.ActiveSubscriptions.Dec()
}

// InnerStreamOpened increments the inner-streams gauge for operator, if c is
// non-nil.
func (c *Collector) InnerStreamOpened(operator string) {
	if c == nil {
		return
	}
	c.InnerStreams.WithLabelValues(operator).Inc()
}

// InnerStreamClosed decrements the inner-streams gauge for operator, if c is
// non-nil.
func (c *Collector) InnerStreamClosed(operator string) {
	if c == nil {
		return
	}
	c.InnerStreams.WithLabelValues(operator).Dec()
}
