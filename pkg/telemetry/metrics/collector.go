package metrics

import (
	"reservoir-hq/livesync/pkg/config"
	"reservoir-hq/livesync/pkg/poller"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the Prometheus registry for one livesync process.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	cycles *CycleMetrics
}

// NewCollector creates a collector registering into registry. A nil
// registry gets a fresh private one.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:   cfg,
		registry: registry,
		cycles:   NewCycleMetrics(cfg, registry),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Hook returns a CycleHook that records every cycle.
func (c *Collector) Hook() poller.CycleHook {
	return c.ObserveCycle
}

// ObserveCycle records one finished cycle. It is a no-op when metrics are
// disabled.
func (c *Collector) ObserveCycle(r poller.CycleResult) {
	if !c.config.Enabled {
		return
	}
	c.cycles.Observe(r)
}

// WatchUpstream exports the snapshot held by view at scrape time. Only one
// upstream source can be registered per collector.
func (c *Collector) WatchUpstream(view MetricsView) error {
	return c.registry.Register(NewUpstreamCollector(c.config.Namespace, view, nil))
}
