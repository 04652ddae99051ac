package crawl

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors updated by traversals. One Metrics
// value may be shared by any number of engines and concurrent runs.
type Metrics struct {
	// Runs counts completed traversals
	Runs prometheus.Counter

	// Lookups counts neighbor lookups by result ("ok" or "error")
	Lookups *prometheus.CounterVec

	// LookupDuration tracks neighbor lookup latency
	LookupDuration prometheus.Histogram

	// Visited counts nodes recorded within the depth bound
	Visited prometheus.Counter

	// Frontier tracks work items pushed but not yet popped
	Frontier prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Runs: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawlgraph_runs_total",
			Help: "Completed breadth-first traversals",
		}),
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crawlgraph_lookups_total",
			Help: "Neighbor lookups by result",
		}, []string{"result"}),
		LookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "crawlgraph_lookup_duration_seconds",
			Help:    "Neighbor lookup duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
		}),
		Visited: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawlgraph_nodes_visited_total",
			Help: "Nodes recorded within the depth bound",
		}),
		Frontier: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crawlgraph_frontier_items",
			Help: "Work items queued and not yet picked up by a worker",
		}),
	}
}

func (m *Metrics) observeLookup(d time.Duration, err error) {
	m.LookupDuration.Observe(d.Seconds())
	if err != nil {
		m.Lookups.WithLabelValues("error").Inc()
	} else {
		m.Lookups.WithLabelValues("ok").Inc()
	}
}
