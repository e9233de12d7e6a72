package metrics

import (
	"net/http"
	"time"

	"github.com/TomasB/geolocation/internal/geo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "geolocation"

// Recorder implements geo.Recorder with Prometheus collectors on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	lookups        *prometheus.CounterVec
	lookupDuration prometheus.Histogram
	batches        *prometheus.CounterVec
	batchSize      prometheus.Histogram
	reloads        *prometheus.CounterVec
}

// NewRecorder creates a Recorder with the Go runtime and process collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Country lookups by outcome.",
		}, []string{"outcome"}),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Time spent in the lookup engine.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Batch requests by aggregate status.",
		}, []string{"status"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of addresses per batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_reloads_total",
			Help:      "Database reload attempts by result.",
		}, []string{"result"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.lookups,
		r.lookupDuration,
		r.batches,
		r.batchSize,
		r.reloads,
	)
	return r
}

// LookupCompleted counts one lookup.
func (r *Recorder) LookupCompleted(kind geo.OutcomeKind, elapsed time.Duration) {
	r.lookups.WithLabelValues(kind.String()).Inc()
	r.lookupDuration.Observe(elapsed.Seconds())
}

// BatchCompleted counts one batch.
func (r *Recorder) BatchCompleted(status geo.BatchStatus, size int) {
	r.batches.WithLabelValues(status.String()).Inc()
	r.batchSize.Observe(float64(size))
}

// ReloadCompleted counts one database reload attempt.
func (r *Recorder) ReloadCompleted(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	r.reloads.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
