package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's Prometheus instruments.
type Metrics struct {
	runsStarted  prometheus.Counter
	runsFinished *prometheus.CounterVec
	runsRunning  prometheus.Gauge
	runDuration  prometheus.Histogram
}

// NewMetrics registers the server metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "simplexd_runs_started_total",
			Help: "Number of optimization runs started.",
		}),
		runsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "simplexd_runs_finished_total",
			Help: "Number of optimization runs finished, by terminal status.",
		}, []string{"status"}),
		runsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "simplexd_runs_running",
			Help: "Number of optimization runs currently executing.",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "simplexd_run_duration_seconds",
			Help:    "Wall-clock duration of optimization runs.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
}
