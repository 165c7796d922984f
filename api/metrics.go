package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"trip-planner/decision/planner"
)

// metrics are registered on a per-server registry so several servers can
// coexist in one process.
type metrics struct {
	registry           *prometheus.Registry
	plans              *prometheus.CounterVec
	adaptations        *prometheus.CounterVec
	narrativeFallbacks prometheus.Counter
	planDuration       prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripplanner",
			Name:      "plans_total",
			Help:      "Plans requested, by adaptation status or error code.",
		}, []string{"status"}),
		adaptations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripplanner",
			Name:      "adaptations_total",
			Help:      "Adaptation steps applied, by strategy.",
		}, []string{"strategy"}),
		narrativeFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tripplanner",
			Name:      "narrative_fallbacks_total",
			Help:      "Day narratives that used the deterministic fallback.",
		}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tripplanner",
			Name:      "plan_duration_seconds",
			Help:      "End-to-end plan latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
	m.registry.MustRegister(
		m.plans,
		m.adaptations,
		m.narrativeFallbacks,
		m.planDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) observePlan(res *planner.PlanResult, seconds float64) {
	m.planDuration.Observe(seconds)
	m.plans.WithLabelValues(string(res.AdaptationStatus)).Inc()
	for _, a := range res.Adaptations {
		m.adaptations.WithLabelValues(a.Strategy).Inc()
	}
	m.narrativeFallbacks.Add(float64(res.NarrativeStats.Fallback))
}

func (m *metrics) observeError(code string) {
	if code == "" {
		code = "internal"
	}
	m.plans.WithLabelValues("error_" + code).Inc()
}
