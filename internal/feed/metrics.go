package feed

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports feed activity to Prometheus. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	ticks     prometheus.Counter
	faults    prometheus.Counter
	observers prometheus.Gauge
	active    prometheus.Gauge
	fanout    prometheus.Histogram
}

// NewMetrics registers the feed collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "netsec_feed_ticks_total",
			Help: "Total number of snapshots generated and fanned out.",
		}),
		faults: f.NewCounter(prometheus.CounterOpts{
			Name: "netsec_feed_observer_faults_total",
			Help: "Total number of observer panics recovered during fan-out.",
		}),
		observers: f.NewGauge(prometheus.GaugeOpts{
			Name: "netsec_feed_observers",
			Help: "Number of currently registered observers.",
		}),
		active: f.NewGauge(prometheus.GaugeOpts{
			Name: "netsec_feed_active",
			Help: "1 while the feed timer is running, 0 when idle.",
		}),
		fanout: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "netsec_feed_tick_duration_seconds",
			Help:    "Time spent generating and fanning out one snapshot.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
}

func (m *Metrics) observeTick(d time.Duration) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.fanout.Observe(d.Seconds())
}

func (m *Metrics) incFaults() {
	if m == nil {
		return
	}
	m.faults.Inc()
}

func (m *Metrics) setObservers(n int) {
	if m == nil {
		return
	}
	m.observers.Set(float64(n))
}

func (m *Metrics) setActive(on bool) {
	if m == nil {
		return
	}
	if on {
		m.active.Set(1)
		return
	}
	m.active.Set(0)
}
