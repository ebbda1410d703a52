// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/expensebook/internal/calculator"
)

const namespace = "expensebook"

// Metrics is a private registry with the application's collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	rpcDuration    *prometheus.HistogramVec
	splitsComputed *prometheus.CounterVec
	splitFailures  *prometheus.CounterVec
	settlements    *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Duration of Connect RPCs by procedure and code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
		splitsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "splits_computed_total",
			Help:      "Expenses successfully split, by method.",
		}, []string{"method"}),
		splitFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "split_failures_total",
			Help:      "Rejected split computations, by error kind.",
		}, []string{"kind"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settle-ups recorded, by currency.",
		}, []string{"currency"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rpcDuration,
		m.splitsComputed,
		m.splitFailures,
		m.settlements,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(procedure, code).Observe(d.Seconds())
}

// ObserveSplit counts one ComputeSplit outcome.
func (m *Metrics) ObserveSplit(method string, err error) {
	if m == nil {
		return
	}
	if err == nil {
		m.splitsComputed.WithLabelValues(method).Inc()
		return
	}
	m.splitFailures.WithLabelValues(failureKind(err)).Inc()
}

func (m *Metrics) ObserveSettlement(currency string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(currency).Inc()
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, calculator.ErrValidation):
		return "validation"
	case errors.Is(err, calculator.ErrReconciliation):
		return "reconciliation"
	case errors.Is(err, calculator.ErrInvariant):
		return "invariant"
	default:
		return "other"
	}
}
