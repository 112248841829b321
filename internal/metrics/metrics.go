package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all the Prometheus metrics for the connector
type Metrics struct {
	LookupsTotal     prometheus.Counter
	EntitiesSearched prometheus.Counter
	ItemsFound       prometheus.Counter
	RemoteErrors     prometheus.Counter
	LookupDuration   prometheus.Histogram
	SubmissionsTotal *prometheus.CounterVec
}

// New creates a Metrics instance with every collector registered
func New() *Metrics {
	return &Metrics{
		LookupsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "connector_lookups_total",
			Help: "Total number of lookup batches assembled",
		}),
		EntitiesSearched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "connector_entities_searched_total",
			Help: "Total number of entities searched against the platform",
		}),
		ItemsFound: promauto.NewCounter(prometheus.CounterOpts{
			Name: "connector_items_found_total",
			Help: "Total number of platform records returned by lookups",
		}),
		RemoteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "connector_remote_errors_total",
			Help: "Total number of failed platform calls",
		}),
		LookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "connector_lookup_duration_seconds",
			Help:    "Time spent assembling one lookup batch",
			Buckets: prometheus.DefBuckets,
		}),
		SubmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "connector_submissions_total",
			Help: "Total number of platform mutations by action",
		}, []string{"action"}),
	}
}

// LookupCompleted records one assembled batch. A nil receiver is a no-op.
func (m *Metrics) LookupCompleted(searched, found int, d time.Duration) {
	if m == nil {
		return
	}
	m.LookupsTotal.Inc()
	m.EntitiesSearched.Add(float64(searched))
	m.ItemsFound.Add(float64(found))
	m.LookupDuration.Observe(d.Seconds())
}

// RemoteError records one failed platform call. A nil receiver is a no-op.
func (m *Metrics) RemoteError() {
	if m == nil {
		return
	}
	m.RemoteErrors.Inc()
}

// SubmissionRecorded records one mutation by action name. A nil receiver
// is a no-op.
func (m *Metrics) SubmissionRecorded(action string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(action).Inc()
}
