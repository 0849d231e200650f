package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecastsTotal *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	lastRMSE       *prometheus.GaugeVec
	stageLatency   *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		forecastsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphacast_forecasts_total",
				Help: "Total number of forecasts produced",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphacast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastRMSE: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "alphacast_forecast_rmse",
				Help: "Held-out RMSE of the latest forecast per symbol",
			},
			[]string{"symbol"},
		),
		stageLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alphacast_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordForecast counts a produced forecast.
func (r *Recorder) RecordForecast(symbol string) {
	r.forecastsTotal.WithLabelValues(symbol).Inc()
}

// RecordError records an error occurrence by kind.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordRMSE records the held-out RMSE of the latest forecast.
func (r *Recorder) RecordRMSE(symbol string, rmse float64) {
	r.lastRMSE.WithLabelValues(symbol).Set(rmse)
}

// RecordStageLatency records pipeline stage latency in seconds.
func (r *Recorder) RecordStageLatency(stage string, seconds float64) {
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}
