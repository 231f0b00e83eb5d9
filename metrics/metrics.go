// SPDX-License-Identifier: EPL-2.0

// Package metrics exports pool and dispatcher activity to Prometheus.
package metrics

import (
	"github.com/ik5/audmgr/dispatch"
	"github.com/ik5/audmgr/pool"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "audmgr"

// StatsSource is implemented by *pool.Pool.
type StatsSource interface {
	Stats() pool.Stats
}

// Metrics is a prometheus.Collector and a dispatch.Recorder. Pool figures
// are read from the StatsSource at scrape time.
type Metrics struct {
	pool StatsSource

	plays    *prometheus.CounterVec
	stops    prometheus.Counter
	releases prometheus.Counter

	poolCapacity       *prometheus.Desc
	poolHandles        *prometheus.Desc
	poolCreated        *prometheus.Desc
	poolDestroyed      *prometheus.Desc
	poolOverflow       *prometheus.Desc
	poolExhausted      *prometheus.Desc
	poolDoubleReleases *prometheus.Desc

	collectors []prometheus.Collector
}

var _ dispatch.Recorder = (*Metrics)(nil)

// New creates the collector and registers it with registry. src may be nil
// when only dispatcher counters are wanted.
func New(registry prometheus.Registerer, src StatsSource) (*Metrics, error) {
	m := &Metrics{pool: src}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.plays = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plays_total",
			Help:      "Play requests by outcome",
		},
		[]string{"result"},
	)
	for _, r := range []dispatch.PlayResult{
		dispatch.PlayStarted, dispatch.PlaySuppressed, dispatch.PlayNotFound, dispatch.PlayExhausted,
	} {
		m.plays.WithLabelValues(r.String())
	}

	m.stops = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stopped_handles_total",
		Help:      "Handles stopped by stop requests",
	})
	m.releases = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "released_handles_total",
		Help:      "Handles returned to the pool by completion watchers",
	})

	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "pool", name), help, labels, nil)
	}
	m.poolCapacity = desc("capacity", "Configured pool capacity")
	m.poolHandles = desc("handles", "Handles currently held by the pool", "state")
	m.poolCreated = desc("created_total", "Handles created")
	m.poolDestroyed = desc("destroyed_total", "Handles destroyed")
	m.poolOverflow = desc("overflow_total", "Handles created beyond capacity")
	m.poolExhausted = desc("exhausted_total", "Acquires rejected at capacity")
	m.poolDoubleReleases = desc("double_releases_total", "Releases of handles that were not active")

	m.collectors = []prometheus.Collector{m.plays, m.stops, m.releases}
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
	ch <- m.poolCapacity
	ch <- m.poolHandles
	ch <- m.poolCreated
	ch <- m.poolDestroyed
	ch <- m.poolOverflow
	ch <- m.poolExhausted
	ch <- m.poolDoubleReleases
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
	if m.pool == nil {
		return
	}

	s := m.pool.Stats()
	gauge := func(d *prometheus.Desc, v int, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v), labels...)
	}
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}

	gauge(m.poolCapacity, s.Capacity)
	gauge(m.poolHandles, s.Idle, "idle")
	gauge(m.poolHandles, s.Active, "active")
	counter(m.poolCreated, s.Created)
	counter(m.poolDestroyed, s.Destroyed)
	counter(m.poolOverflow, s.Overflow)
	counter(m.poolExhausted, s.Exhausted)
	counter(m.poolDoubleReleases, s.DoubleReleases)
}

func (m *Metrics) ObservePlay(r dispatch.PlayResult) {
	m.plays.WithLabelValues(r.String()).Inc()
}

func (m *Metrics) ObserveStop(handles int) {
	m.stops.Add(float64(handles))
}

func (m *Metrics) ObserveRelease(handles int) {
	m.releases.Add(float64(handles))
}
