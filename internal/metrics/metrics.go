// Package metrics exports decision counters and latencies.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TwigBush/opa-authz/internal/authz"
)

type Decisions struct {
	Total    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Denials  *prometheus.CounterVec
	Filtered *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Decisions {
	return NewWith(prometheus.NewRegistry())
}

func NewWith(reg prometheus.Registerer) *Decisions {
	f := promauto.With(reg)
	d := &Decisions{
		Total: f.NewCounterVec(prometheus.CounterOpts{
			Name: "opa_authz_decisions_total",
			Help: "Policy decisions by operation and outcome",
		}, []string{"operation", "outcome"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "opa_authz_decision_duration_seconds",
			Help:    "Latency of policy engine queries",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"operation"}),
		Denials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "opa_authz_denials_total",
			Help: "Checks that ended in an access denial",
		}, []string{"operation"}),
		Filtered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "opa_authz_filter_candidates_total",
			Help: "Filter candidates by result",
		}, []string{"operation", "result"}),
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		d.gatherer = g
	}
	return d
}

func (d *Decisions) ObserveDecision(op authz.Operation, outcome string, elapsed time.Duration) {
	d.Total.WithLabelValues(string(op), outcome).Inc()
	d.Duration.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}

func (d *Decisions) ObserveDenial(op authz.Operation) {
	d.Denials.WithLabelValues(string(op)).Inc()
}

func (d *Decisions) ObserveFilter(op authz.Operation, kept, dropped int) {
	d.Filtered.WithLabelValues(string(op), "kept").Add(float64(kept))
	d.Filtered.WithLabelValues(string(op), "dropped").Add(float64(dropped))
}

func (d *Decisions) Handler() http.Handler {
	if d.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{})
}
