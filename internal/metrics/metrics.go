// Package metrics exposes Prometheus counters for the state engine.
//
// All methods are safe to call on a nil *Metrics, so components can be built
// without instrumentation in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "estateflow"

// Metrics holds the engine's collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	mutations     *prometheus.CounterVec
	storageFaults *prometheus.CounterVec
	rejections    prometheus.Counter
	chat          *prometheus.CounterVec
}

// New creates a registry with the engine counters plus Go/process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_mutations_total",
			Help:      "Mutations applied to persisted collections.",
		}, []string{"collection", "op"}),
		storageFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_faults_total",
			Help:      "Storage reads or writes that failed and were degraded.",
		}, []string{"collection", "op"}),
		rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparison_rejections_total",
			Help:      "Comparison adds refused because the set was full.",
		}),
		chat: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_submissions_total",
			Help:      "Chat submissions by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.mutations,
		m.storageFaults,
		m.rejections,
		m.chat,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
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

func (m *Metrics) ObserveMutation(collection, op string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(collection, op).Inc()
}

func (m *Metrics) ObserveStorageFault(collection, op string) {
	if m == nil {
		return
	}
	m.storageFaults.WithLabelValues(collection, op).Inc()
}

func (m *Metrics) ObserveComparisonRejected() {
	if m == nil {
		return
	}
	m.rejections.Inc()
}

func (m *Metrics) ObserveChat(outcome string) {
	if m == nil {
		return
	}
	m.chat.WithLabelValues(outcome).Inc()
}
