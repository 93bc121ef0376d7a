package actions

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "bronze"

// Metrics holds the Prometheus collectors for loads run by the web service.
// A nil *Metrics records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	LoadsTotal   *prometheus.CounterVec
	RowsRead     *prometheus.CounterVec
	RowsWritten  *prometheus.CounterVec
	LoadDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors in their own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "load",
				Name:      "total",
				Help:      "Total number of loads by table and status",
			},
			[]string{"table", "status"},
		),
		RowsRead: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "load",
				Name:      "rows_read_total",
				Help:      "Total number of source rows read",
			},
			[]string{"table"},
		),
		RowsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "load",
				Name:      "rows_written_total",
				Help:      "Total number of rows written to bronze tables",
			},
			[]string{"table"},
		),
		LoadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "load",
				Name:      "duration_seconds",
				Help:      "Load duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"table"},
		),
	}
	m.registry.MustRegister(m.LoadsTotal, m.RowsRead, m.RowsWritten, m.LoadDuration)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observe(result LoadResult, err error, d time.Duration) {
	if m == nil {
		return
	}
	tableName := result.Table
	if tableName == "" {
		tableName = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.LoadsTotal.WithLabelValues(tableName, status).Inc()
	m.RowsRead.WithLabelValues(tableName).Add(float64(result.RowsRead))
	m.RowsWritten.WithLabelValues(tableName).Add(float64(result.RowsWritten))
	m.LoadDuration.WithLabelValues(tableName).Observe(d.Seconds())
}
