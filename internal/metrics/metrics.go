// Package metrics exposes Prometheus instrumentation for analyses.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "incapscan"

// Metrics holds the collectors used by the pipeline and the HTTP boundary.
type Metrics struct {
	// Step latency by pipeline step
	StepDuration *prometheus.HistogramVec

	// Final verdicts by label and whether the fallback was used
	Verdicts *prometheus.CounterVec

	// End to end analysis latency
	AnalysisDuration prometheus.Histogram

	// Registry and congruence outcomes by status
	RegistryChecks   *prometheus.CounterVec
	CongruenceChecks *prometheus.CounterVec

	// Online enrichment outcomes: hit, miss, error, disabled
	Enrichment *prometheus.CounterVec

	// HTTP requests by route and status code
	HTTPRequests *prometheus.HistogramVec
}

// NewRegistry returns a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New creates the collectors and registers them with reg.
// A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		StepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of pipeline steps",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"step"}),

		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Final verdicts by label",
		}, []string{"verdict", "fallback"}),

		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a full document analysis",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		RegistryChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_checks_total",
			Help:      "Physician registry checks by status",
		}, []string{"status"}),

		CongruenceChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "congruence_checks_total",
			Help:      "Diagnosis congruence checks by status",
		}, []string{"status"}),

		Enrichment: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_total",
			Help:      "Online diagnosis enrichment outcomes",
		}, []string{"outcome"}),

		HTTPRequests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests by route and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveStep records the duration of a pipeline step.
func (m *Metrics) ObserveStep(step string, d time.Duration) {
	if m != nil {
		m.StepDuration.WithLabelValues(step).Observe(d.Seconds())
	}
}

// IncrementVerdict records a final verdict.
func (m *Metrics) IncrementVerdict(verdict string, fallback bool) {
	if m != nil {
		fb := "false"
		if fallback {
			fb = "true"
		}
		m.Verdicts.WithLabelValues(verdict, fb).Inc()
	}
}

// ObserveAnalysis records the end to end duration.
func (m *Metrics) ObserveAnalysis(d time.Duration) {
	if m != nil {
		m.AnalysisDuration.Observe(d.Seconds())
	}
}

// IncrementRegistry records a registry check outcome.
func (m *Metrics) IncrementRegistry(status string) {
	if m != nil {
		m.RegistryChecks.WithLabelValues(status).Inc()
	}
}

// IncrementCongruence records a congruence check outcome.
func (m *Metrics) IncrementCongruence(status string) {
	if m != nil {
		m.CongruenceChecks.WithLabelValues(status).Inc()
	}
}

// IncrementEnrichment records an enrichment outcome. Its signature matches
// congruence.WithEnrichmentObserver.
func (m *Metrics) IncrementEnrichment(outcome string) {
	if m != nil {
		m.Enrichment.WithLabelValues(outcome).Inc()
	}
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(method, route, code string, d time.Duration) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(method, route, code).Observe(d.Seconds())
	}
}
