// Package metrics exposes Prometheus counters for bill generation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "feebill"

// Metrics holds the application's collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	billsComposed    *prometheus.CounterVec
	feeAdjustments   *prometheus.CounterVec
	unknownBillTypes prometheus.Counter
	renderDuration   *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		billsComposed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_composed_total",
			Help:      "Bill documents composed, by bill type.",
		}, []string{"bill_type"}),
		feeAdjustments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fee_adjustments_total",
			Help:      "Fee edits, by component and clamp outcome.",
		}, []string{"component", "clamp"}),
		unknownBillTypes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_bill_type_total",
			Help:      "Bills requested with a bill type the aggregator does not know.",
		}),
		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering a bill document, by output format.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"format"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// BillComposed counts one composed document.
func (m *Metrics) BillComposed(billType string) {
	if m == nil {
		return
	}
	m.billsComposed.WithLabelValues(billType).Inc()
}

// FeeAdjusted counts one fee edit.
func (m *Metrics) FeeAdjusted(component, clamp string) {
	if m == nil {
		return
	}
	m.feeAdjustments.WithLabelValues(component, clamp).Inc()
}

// UnknownBillType counts a bill requested with an unknown bill type.
func (m *Metrics) UnknownBillType() {
	if m == nil {
		return
	}
	m.unknownBillTypes.Inc()
}

// ObserveRender records how long rendering took since start.
func (m *Metrics) ObserveRender(format string, start time.Time) {
	if m == nil {
		return
	}
	m.renderDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
}
