// Package metrics holds the Prometheus collectors for authentication outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OutcomeSuccess labels an operation that finished without error.
const OutcomeSuccess = "success"

// Recorder counts auth operations by outcome. A nil *Recorder discards everything.
type Recorder struct {
	registry    *prometheus.Registry
	operations  *prometheus.CounterVec
	escalations *prometheus.CounterVec
}

// New registers the auth collectors plus Go runtime collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "operations_total",
			Help:      "Auth operations by operation and outcome code.",
		}, []string{"operation", "outcome"}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "session_escalations_total",
			Help:      "Credential version bumps by reason and whether this request applied the bump.",
		}, []string{"reason", "applied"}),
	}
	reg.MustRegister(r.operations, r.escalations)
	return r
}

// Operation counts one finished operation. outcome is OutcomeSuccess or an error code.
func (r *Recorder) Operation(operation, outcome string) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(operation, outcome).Inc()
}

// Escalation counts one bump attempt.
func (r *Recorder) Escalation(reason string, applied bool) {
	if r == nil {
		return
	}
	label := "false"
	if applied {
		label = "true"
	}
	r.escalations.WithLabelValues(reason, label).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
