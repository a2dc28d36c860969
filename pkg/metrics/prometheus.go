package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	rowsLoaded  *prometheus.CounterVec
	rowsDropped *prometheus.CounterVec
	forecasts   *prometheus.CounterVec
	fitDuration *prometheus.HistogramVec
	exports     *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
}

// New creates a recorder on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registering its collectors on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		rowsLoaded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demandcast_rows_loaded_total",
				Help: "Transaction rows read from sources",
			},
			[]string{"source"},
		),
		rowsDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demandcast_rows_dropped_total",
				Help: "Transaction rows discarded while ingesting or cleaning",
			},
			[]string{"reason"},
		),
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demandcast_forecasts_total",
				Help: "Forecast requests by backend and outcome",
			},
			[]string{"backend", "status"},
		),
		fitDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "demandcast_forecast_duration_seconds",
				Help:    "Time spent fitting and predicting",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"backend"},
		),
		exports: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demandcast_exports_total",
				Help: "CSV exports by cache outcome",
			},
			[]string{"cache_hit"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demandcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordRowsLoaded counts rows read from a source location.
func (r *Recorder) RecordRowsLoaded(source string, n int) {
	r.rowsLoaded.WithLabelValues(source).Add(float64(n))
}

// RecordRowsDropped counts rows discarded for reason.
func (r *Recorder) RecordRowsDropped(reason string, n int) {
	r.rowsDropped.WithLabelValues(reason).Add(float64(n))
}

// RecordForecast records one forecast request and its duration.
func (r *Recorder) RecordForecast(backend, status string, seconds float64) {
	r.forecasts.WithLabelValues(backend, status).Inc()
	r.fitDuration.WithLabelValues(backend).Observe(seconds)
}

// RecordExport records a CSV export.
func (r *Recorder) RecordExport(cacheHit bool) {
	r.exports.WithLabelValues(strconv.FormatBool(cacheHit)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
