package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastAQI      *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airsight_upstream_fetches_total",
				Help: "Total number of upstream live-data fetches",
			},
			[]string{"station", "result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airsight_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastAQI: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "airsight_last_aqi",
				Help: "Last observed AQI per station",
			},
			[]string{"station"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "airsight_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records an upstream fetch attempt outcome.
func (r *Recorder) RecordFetch(station, result string) {
	r.fetchesTotal.WithLabelValues(station, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastAQI records the last observed AQI for a station.
func (r *Recorder) RecordLastAQI(station string, aqi float64) {
	r.lastAQI.WithLabelValues(station).Set(aqi)
}

// RecordLatency records operation latency.
func (r *Recorder) RecordLatency(op string, d time.Duration) {
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}
