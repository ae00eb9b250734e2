// Package metrics exports timer measurements as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "slimtimer"

// Recorder collects measurements into its own registry. It implements
// timer.Observer.
type Recorder struct {
	registry *prometheus.Registry

	runDuration *prometheus.HistogramVec
	runsTotal   *prometheus.CounterVec
	failures    *prometheus.CounterVec
	mean        *prometheus.GaugeVec
	stdev       *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,

		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "run_duration_seconds",
				Help:      "Elapsed time of a single timed invocation in seconds",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 14),
			},
			[]string{"tag"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_total",
				Help:      "Total number of committed timed invocations",
			},
			[]string{"tag"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "measure_failures_total",
				Help:      "Total number of aborted measurements",
			},
			[]string{"tag"},
		),
		mean: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "mean_seconds",
				Help:      "Mean elapsed time of the last measurement in seconds",
			},
			[]string{"tag"},
		),
		stdev: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "stdev_seconds",
				Help:      "Population standard deviation of the last measurement in seconds",
			},
			[]string{"tag"},
		),
	}
}

// ObserveRun records one committed sample.
func (r *Recorder) ObserveRun(tag string, seconds float64) {
	r.runDuration.WithLabelValues(tag).Observe(seconds)
	r.runsTotal.WithLabelValues(tag).Inc()
}

// ObserveSummary records the statistics of a completed measurement.
func (r *Recorder) ObserveSummary(tag string, mean, stdev float64) {
	r.mean.WithLabelValues(tag).Set(mean)
	r.stdev.WithLabelValues(tag).Set(stdev)
}

// ObserveFailure counts an aborted measurement.
func (r *Recorder) ObserveFailure(tag string) {
	r.failures.WithLabelValues(tag).Inc()
}

// Gatherer exposes the registry, e.g. for promhttp or tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics in the text exposition format to path,
// for node-exporter's textfile collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
