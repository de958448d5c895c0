package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Manager owns the sync metrics. A nil *Manager is valid and records
// nothing, so callers never need to check whether metrics are on.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	runs          *prometheus.CounterVec
	rows          *prometheus.CounterVec
	retries       *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	lastSuccess   *prometheus.GaugeVec
	remotePlayers prometheus.Gauge
}

// NewManager creates a manager on a private registry unless WithRegistry
// is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "aads",
		subsystem:        "sync",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Sync operations by operation and result",
	}, []string{"op", "result"})

	m.rows = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_total",
		Help:      "Rows transferred by operation and table",
	}, []string{"op", "table"})

	m.retries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "retries_total",
		Help:      "Whole-operation retries after a failed attempt",
	}, []string{"op"})

	m.duration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duration_seconds",
		Help:      "Wall time of sync operations",
		Buckets:   m.histogramBuckets,
	}, []string{"op"})

	m.lastSuccess = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful operation",
	}, []string{"op"})

	m.remotePlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "remote_players",
		Help:      "Player count reported by the last connectivity probe",
	})
}

// RecordRun counts a finished operation and observes its duration.
func (m *Manager) RecordRun(op string, ok bool, started, finished time.Time) {
	if m == nil {
		return
	}
	result := ResultFailure
	if ok {
		result = ResultSuccess
		m.lastSuccess.WithLabelValues(op).Set(float64(finished.Unix()))
	}
	m.runs.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(finished.Sub(started).Seconds())
}

// AddRows counts rows moved for one table.
func (m *Manager) AddRows(op, table string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rows.WithLabelValues(op, table).Add(float64(n))
}

// RecordRetry counts a retry of a whole operation.
func (m *Manager) RecordRetry(op string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(op).Inc()
}

// SetRemotePlayers records the count returned by a probe.
func (m *Manager) SetRemotePlayers(n int64) {
	if m == nil {
		return
	}
	m.remotePlayers.Set(float64(n))
}

// Registry returns the registry the metrics live on.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteToTextfile writes the current metrics in the text exposition format,
// for node_exporter's textfile collector. The file is replaced atomically.
func (m *Manager) WriteToTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
