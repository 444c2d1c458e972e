// Package metrics holds the Prometheus instruments of the client pipeline
// and the development node.
//
// All methods are safe on a nil *Metrics, so components can be built
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "atlas"

// Metrics groups every instrument. Label sets are listed next to each field.
type Metrics struct {
	// Pipeline
	Entries       *prometheus.GaugeVec     // atlas_queue_entries{status}
	StageDuration *prometheus.HistogramVec // atlas_stage_duration_seconds{stage}
	Events        *prometheus.CounterVec   // atlas_events_total{kind}
	DroppedEvents *prometheus.CounterVec   // atlas_events_dropped_total{kind}

	// Transport
	UploadAttempts *prometheus.CounterVec // atlas_upload_attempts_total{sink}
	UploadResults  *prometheus.CounterVec // atlas_upload_results_total{sink,result}
	UploadedBytes  prometheus.Counter     // atlas_uploaded_bytes_total

	// Ledger
	Broadcasts *prometheus.CounterVec // atlas_ledger_broadcasts_total{outcome}

	// Development node
	RPCs          *prometheus.CounterVec // atlas_devnet_rpcs_total{method,code}
	ReceivedBytes prometheus.Counter     // atlas_devnet_received_bytes_total
}

// New registers all instruments with reg. A nil reg means the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		Entries: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_entries",
			Help:      "Queued files by status",
		}, []string{"status"}),

		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of the encrypt and merkle stages",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),

		Events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Lifecycle events emitted by the queue",
		}, []string{"kind"}),

		DroppedEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events a slow observer missed because its buffer was full",
		}, []string{"kind"}),

		UploadAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_attempts_total",
			Help:      "Transport attempts including retries",
		}, []string{"sink"}),

		UploadResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_results_total",
			Help:      "Final transport outcome per file",
		}, []string{"sink", "result"}),

		UploadedBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes accepted by the upload endpoint",
		}),

		Broadcasts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_broadcasts_total",
			Help:      "Ledger transactions by outcome",
		}, []string{"outcome"}),

		RPCs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "devnet_rpcs_total",
			Help:      "Development node RPCs by method and status code",
		}, []string{"method", "code"}),

		ReceivedBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "devnet_received_bytes_total",
			Help:      "Blob bytes stored by the development node",
		}),
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// EntryMoved shifts one entry between status gauges. Empty from or to skip
// that side, for entries entering or leaving the queue.
func (m *Metrics) EntryMoved(from, to string) {
	if m == nil {
		return
	}
	if from != "" {
		m.Entries.WithLabelValues(from).Dec()
	}
	if to != "" {
		m.Entries.WithLabelValues(to).Inc()
	}
}

// ObserveStage records how long one stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Event counts one emitted event.
func (m *Metrics) Event(kind string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(kind).Inc()
}

// EventDropped counts one event not delivered to an observer.
func (m *Metrics) EventDropped(kind string) {
	if m == nil {
		return
	}
	m.DroppedEvents.WithLabelValues(kind).Inc()
}

// UploadAttempt counts one transport attempt.
func (m *Metrics) UploadAttempt(sink string) {
	if m == nil {
		return
	}
	m.UploadAttempts.WithLabelValues(sink).Inc()
}

// UploadResult records the final outcome of a file upload.
func (m *Metrics) UploadResult(sink string, ok bool, size int64) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
		m.UploadedBytes.Add(float64(size))
	}
	m.UploadResults.WithLabelValues(sink, result).Inc()
}

// Broadcast counts a ledger transaction outcome: ok, rejected or failed.
func (m *Metrics) Broadcast(outcome string) {
	if m == nil {
		return
	}
	m.Broadcasts.WithLabelValues(outcome).Inc()
}

// RPC counts one handled development node call.
func (m *Metrics) RPC(method, code string) {
	if m == nil {
		return
	}
	m.RPCs.WithLabelValues(method, code).Inc()
}

// Received counts blob bytes stored by the development node.
func (m *Metrics) Received(n int64) {
	if m == nil {
		return
	}
	m.ReceivedBytes.Add(float64(n))
}
