package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Plan outcome labels for route_plans_total.
const (
	PlanSolved   = "solved"
	PlanPartial  = "partial"
	PlanCached   = "cached"
	PlanRejected = "rejected"
	PlanFailed   = "failed"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	plans        *prometheus.CounterVec
	unsolved     prometheus.Counter
	planDuration prometheus.Histogram
	httpRequests *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "route_plans_total",
			Help: "Route plan requests by outcome.",
		}, []string{"status"}),
		unsolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "route_trips_unsolved_total",
			Help: "Trips left without a feasible tour.",
		}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "route_plan_duration_seconds",
			Help:    "Wall time spent computing a route plan.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.plans,
		m.unsolved,
		m.planDuration,
		m.httpRequests,
	)
	return m
}

func (m *Metrics) ObservePlan(status string, dur time.Duration, unsolvedTrips int) {
	if m == nil {
		return
	}
	m.plans.WithLabelValues(status).Inc()
	if status == PlanSolved || status == PlanPartial {
		m.planDuration.Observe(dur.Seconds())
	}
	if unsolvedTrips > 0 {
		m.unsolved.Add(float64(unsolvedTrips))
	}
}

func (m *Metrics) ObserveRequest(method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
