package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's Prometheus collectors.
type Metrics struct {
	PredictionsTotal   *prometheus.CounterVec
	PredictionDuration prometheus.Histogram
	IncidentsCreated   prometheus.Counter
	StoreFailures      prometheus.Counter
	BroadcastFailures  prometheus.Counter
	ConnectedSessions  prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a Metrics instance with all collectors registered on a private
// registry.
func New() *Metrics {
	m := &Metrics{
		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roadwatch_predictions_total",
			Help: "Total classified frames by resulting label",
		}, []string{"label"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "roadwatch_prediction_duration_seconds",
			Help:    "Time spent in decode, preprocess and inference per frame",
			Buckets: prometheus.DefBuckets,
		}),
		IncidentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roadwatch_incidents_created_total",
			Help: "Incidents persisted after positive detections",
		}),
		StoreFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roadwatch_store_failures_total",
			Help: "Incident persistence failures after positive detections",
		}),
		BroadcastFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roadwatch_broadcast_failures_total",
			Help: "Incident broadcast failures",
		}),
		ConnectedSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roadwatch_connected_sessions",
			Help: "Currently connected real-time sessions",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.PredictionsTotal,
		m.PredictionDuration,
		m.IncidentsCreated,
		m.StoreFailures,
		m.BroadcastFailures,
		m.ConnectedSessions,
	)

	return m
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
