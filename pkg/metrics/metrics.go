// Package metrics exposes staging run metrics on a private Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "lol"
	subsystem = "staging"

	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusDryRun  = "dry_run"
)

// Recorder is safe to use as a nil pointer, in which case nothing is recorded.
type Recorder struct {
	registry *prometheus.Registry

	rowsRead      prometheus.Counter
	rowsWritten   *prometheus.CounterVec
	modelDuration *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	lastRunUnix   prometheus.Gauge
}

func New() *Recorder {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	return &Recorder{
		registry: registry,
		rowsRead: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "raw_rows_read_total",
			Help:      "Raw matches read from the snapshot",
		}),
		rowsWritten: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rows_written_total",
			Help:      "Rows written per staging model",
		}, []string{"model"}),
		modelDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "model_duration_seconds",
			Help:      "Time spent building and writing one staging model",
			Buckets:   prometheus.DefBuckets,
		}, []string{"model"}),
		runs: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "runs_total",
			Help:      "Staging runs by outcome",
		}, []string{"status"}),
		lastRunUnix: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished run",
		}),
	}
}

func (r *Recorder) RowsRead(n int) {
	if r == nil {
		return
	}
	r.rowsRead.Add(float64(n))
}

func (r *Recorder) RowsWritten(model string, n int) {
	if r == nil {
		return
	}
	r.rowsWritten.WithLabelValues(model).Add(float64(n))
}

func (r *Recorder) ObserveModel(model string, d time.Duration) {
	if r == nil {
		return
	}
	r.modelDuration.WithLabelValues(model).Observe(d.Seconds())
}

func (r *Recorder) RunFinished(status string, at time.Time) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(status).Inc()
	r.lastRunUnix.Set(float64(at.Unix()))
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry(), promhttp.HandlerOpts{})
}
