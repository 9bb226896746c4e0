package metrics

import (
	"reservoir-hq/livesync/pkg/config"
	"reservoir-hq/livesync/pkg/fetch"
	"reservoir-hq/livesync/pkg/poller"

	"github.com/prometheus/client_golang/prometheus"
)

// ResultOK labels a cycle that completed without error.
const ResultOK = "ok"

// CycleMetrics tracks poll cycles per scheduler.
type CycleMetrics struct {
	cyclesTotal         *prometheus.CounterVec
	cycleDuration       *prometheus.HistogramVec
	changesTotal        *prometheus.CounterVec
	lastSuccess         *prometheus.GaugeVec
	consecutiveFailures *prometheus.GaugeVec
}

// NewCycleMetrics creates and registers cycle metrics with the provided registry.
func NewCycleMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CycleMetrics {
	cm := &CycleMetrics{
		cyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "cycles_total",
				Help:      "Total number of poll cycles by outcome",
			},
			[]string{"scheduler", "trigger", "result"},
		),

		cycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Duration of poll cycles in seconds, fetch and reconcile included",
				// Local dashboard API: 5ms to 10s
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"scheduler"},
		),

		changesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "snapshot_changes_total",
				Help:      "Number of cycles whose snapshot changed the live state",
			},
			[]string{"scheduler"},
		),

		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful cycle",
			},
			[]string{"scheduler"},
		),

		consecutiveFailures: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "consecutive_failures",
				Help:      "Failed cycles since the last successful one",
			},
			[]string{"scheduler"},
		),
	}

	registry.MustRegister(
		cm.cyclesTotal,
		cm.cycleDuration,
		cm.changesTotal,
		cm.lastSuccess,
		cm.consecutiveFailures,
	)

	return cm
}

// Observe records r.
func (cm *CycleMetrics) Observe(r poller.CycleResult) {
	result := ResultOK
	switch {
	case r.Cancelled:
		result = string(fetch.KindCancelled)
	case r.Err != nil:
		result = string(fetch.Classify(r.Err))
	}

	cm.cyclesTotal.WithLabelValues(r.Name, string(r.Trigger), result).Inc()

	// A cancelled cycle says nothing about upstream health.
	if r.Cancelled {
		return
	}

	cm.cycleDuration.WithLabelValues(r.Name).Observe(r.Duration.Seconds())

	if r.Err != nil {
		cm.consecutiveFailures.WithLabelValues(r.Name).Inc()
		return
	}

	cm.consecutiveFailures.WithLabelValues(r.Name).Set(0)
	cm.lastSuccess.WithLabelValues(r.Name).Set(float64(r.Started.Add(r.Duration).Unix()))
	if r.Changed {
		cm.changesTotal.WithLabelValues(r.Name).Inc()
	}
}
