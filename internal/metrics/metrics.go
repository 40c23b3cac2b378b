// Package metrics exposes engine activity as Prometheus metrics, fed by
// the domain lifecycle hooks.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parleyhq/parley/pkg/domain"
)

// Metrics holds the engine counters on a private registry so embedding
// applications never collide with the default one.
type Metrics struct {
	registry *prometheus.Registry

	nodeVisits   *prometheus.CounterVec
	messages     *prometheus.CounterVec
	evalFailures *prometheus.CounterVec
	sessions     prometheus.Counter
}

// New creates the metric set.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return &Metrics{
		registry: reg,
		nodeVisits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_node_visits_total",
				Help: "Nodes entered by the engine, partitioned by node kind.",
			},
			[]string{"kind"},
		),
		messages: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_messages_total",
				Help: "Chat log entries appended, partitioned by speaker.",
			},
			[]string{"speaker"},
		),
		evalFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_eval_failures_total",
				Help: "Expression evaluation failures, partitioned by call site.",
			},
			[]string{"site"},
		),
		sessions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "parley_sessions_started_total",
				Help: "Sessions started.",
			},
		),
	}
}

// Hooks returns lifecycle hooks that feed the counters. Pass them to the
// engine via WithHooks.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnNodeEnter: func(_ context.Context, e domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(e.Kind).Inc()
		},
		OnMessage: func(_ context.Context, msg domain.Message) {
			m.messages.WithLabelValues(msg.Speaker).Inc()
		},
		OnEvalError: func(_ context.Context, e domain.EvalEvent) {
			m.evalFailures.WithLabelValues(e.Site).Inc()
		},
	}
}

// SessionStarted counts a new session.
func (m *Metrics) SessionStarted() {
	m.sessions.Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
