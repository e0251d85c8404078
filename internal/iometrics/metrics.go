// Package iometrics exports ingestion outcomes as Prometheus metrics.
package iometrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/Subaru-PFS/qadb/pkg/ingest"
	"github.com/gnames/gn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "qadb"

// Metrics implements ingest.Observer. Each Metrics has its own
// registry, so several can live in one process.
type Metrics struct {
	registry *prometheus.Registry
	rows     *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ ingest.Observer = (*Metrics)(nil)

// New creates Metrics with Go runtime and process collectors.
func New() *Metrics {
	res := &Metrics{
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Rows handled by the ingestion engine, by table and outcome.",
		}, []string{"table", "outcome"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_errors_total",
			Help:      "Batches stopped by an error, by table.",
		}, []string{"table"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "row_duration_seconds",
			Help:      "Time to upsert one row, by table.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"table"}),
	}
	res.registry.MustRegister(
		res.rows,
		res.errors,
		res.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return res
}

// ObserveRow counts a row outcome and its duration.
func (m *Metrics) ObserveRow(table string, o ingest.Outcome, d time.Duration) {
	m.rows.WithLabelValues(table, o.String()).Inc()
	m.duration.WithLabelValues(table).Observe(d.Seconds())
}

// ObserveError counts a failed batch.
func (m *Metrics) ObserveError(table string) {
	m.errors.WithLabelValues(table).Inc()
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the metrics for the node_exporter textfile
// collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return TextfileError(path, err)
	}
	return nil
}

// TextfileError is returned when metrics cannot be written to a file.
func TextfileError(path string, err error) error {
	msg := "Cannot write metrics to <em>%s</em>"
	vars := []any{path}
	return &gn.Error{
		Code: errcode.MetricsTextfileError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to write metrics %s: %w", path, err),
	}
}
