// Package metrics exports pool status and counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuku/sessionpool"
)

// Source is anything that reports pool status and counters, typically a
// *sessionpool.Pool.
type Source interface {
	Status() sessionpool.Status
	Stats() sessionpool.Stats
}

var _ Source = (*sessionpool.Pool)(nil)

// Collector implements prometheus.Collector over a Source. Values are read
// from the source on every scrape, so nothing has to be updated in between.
type Collector struct {
	source Source

	size            *prometheus.Desc
	available       *prometheus.Desc
	waiting         *prometheus.Desc
	maxSize         *prometheus.Desc
	created         *prometheus.Desc
	createFailures  *prometheus.Desc
	recycled        *prometheus.Desc
	recycleFailures *prometheus.Desc
	waitTimeouts    *prometheus.Desc
	acquires        *prometheus.Desc
	acquireDuration *prometheus.Desc
}

// NewCollector returns a collector for source. Metric names are prefixed with
// namespace and the "pool" subsystem, e.g. "app_pool_size". constLabels are
// attached to every metric and distinguish several pools in one registry.
func NewCollector(source Source, namespace string, constLabels prometheus.Labels) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "pool", name), help, nil, constLabels)
	}

	return &Collector{
		source:          source,
		size:            desc("size", "Number of connections in the pool, idle or in use."),
		available:       desc("available", "Number of idle connections."),
		waiting:         desc("waiting", "Number of callers waiting for a connection."),
		maxSize:         desc("max_size", "Maximum number of connections."),
		created:         desc("created_total", "Connections created."),
		createFailures:  desc("create_failures_total", "Failed connection attempts."),
		recycled:        desc("recycled_total", "Connections recycled and returned to the pool."),
		recycleFailures: desc("recycle_failures_total", "Connections discarded because recycling failed."),
		waitTimeouts:    desc("wait_timeouts_total", "Checkouts that timed out waiting for a connection."),
		acquires:        desc("acquires_total", "Successful checkouts."),
		acquireDuration: desc("acquire_duration_seconds_total", "Total time spent in successful checkouts."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.size
	ch <- c.available
	ch <- c.waiting
	ch <- c.maxSize
	ch <- c.created
	ch <- c.createFailures
	ch <- c.recycled
	ch <- c.recycleFailures
	ch <- c.waitTimeouts
	ch <- c.acquires
	ch <- c.acquireDuration
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	status := c.source.Status()
	stats := c.source.Stats()

	gauge := func(d *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v))
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v)
	}

	gauge(c.size, status.Size)
	gauge(c.available, status.Available)
	gauge(c.waiting, status.Waiting)
	gauge(c.maxSize, status.MaxSize)

	counter(c.created, float64(stats.Created))
	counter(c.createFailures, float64(stats.CreateFailures))
	counter(c.recycled, float64(stats.Recycled))
	counter(c.recycleFailures, float64(stats.RecycleFailures))
	counter(c.waitTimeouts, float64(stats.WaitTimeouts))
	counter(c.acquires, float64(stats.Acquires))
	counter(c.acquireDuration, stats.AcquireDuration.Seconds())
}

// Handler serves the given collectors from a private registry, together
// with the Go runtime and process collectors.
func Handler(extra ...prometheus.Collector) (http.Handler, error) {
	registry := prometheus.NewRegistry()
	all := append([]prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}, extra...)

	for _, c := range all {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}), nil
}
