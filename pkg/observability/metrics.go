package observability

import (
	"net/http"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parley"

// Metrics holds the Prometheus collectors describing conversation traffic.
type Metrics struct {
	registry      *prometheus.Registry
	started       *prometheus.CounterVec
	ended         *prometheus.CounterVec
	active        prometheus.Gauge
	nodeVisits    *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	candidates    prometheus.Histogram
	traversalErrs *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversations_started_total",
			Help:      "Total number of conversations started.",
		}, []string{"conversation_id"}),
		ended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversations_ended_total",
			Help:      "Total number of conversations that exited.",
		}, []string{"conversation_id"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conversations_active",
			Help:      "Number of conversations currently running.",
		}),
		nodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_visits_total",
			Help:      "Total number of node visits.",
		}, []string{"conversation_id", "node_id"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Total number of choices delegated to a listener.",
		}, []string{"conversation_id"}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_candidates",
			Help:      "Number of candidates offered per decision.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12},
		}),
		traversalErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traversal_errors_total",
			Help:      "Total number of traversals terminated by an error.",
		}, []string{"conversation_id"}),
	}
	m.registry.MustRegister(m.started, m.ended, m.active, m.nodeVisits, m.decisions, m.candidates, m.traversalErrs)
	return m
}

// Registry exposes the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnConversationEnter: func(e *domain.ConversationEvent) {
			m.started.WithLabelValues(e.ConversationID).Inc()
			m.active.Inc()
		},
		OnConversationExit: func(e *domain.ConversationEvent) {
			m.ended.WithLabelValues(e.ConversationID).Inc()
			m.active.Dec()
		},
		OnNodeEnter: func(e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(e.ConversationID, e.NodeID).Inc()
		},
		OnNodeDecision: func(e *domain.DecisionEvent) {
			m.decisions.WithLabelValues(e.ConversationID).Inc()
			m.candidates.Observe(float64(len(e.Candidates)))
		},
		OnError: func(e *domain.ErrorEvent) {
			m.traversalErrs.WithLabelValues(e.ConversationID).Inc()
		},
	}
}
