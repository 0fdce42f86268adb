package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delivery results
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultExpired = "expired"
	ResultSkipped = "skipped"
)

// Tick results
const (
	TickOK      = "ok"
	TickError   = "error"
	TickSkipped = "skipped"
)

// Metrics holds the collectors of the reminder service.
// All methods are safe on a nil receiver so components can run without metrics.
type Metrics struct {
	registry prometheus.Gatherer

	ticks      *prometheus.CounterVec
	qualifying *prometheus.CounterVec
	deliveries *prometheus.CounterVec
	pruned     prometheus.Counter
	tickTime   *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry that also
// carries the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		ticks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminder_ticks_total",
				Help: "Total number of reminder ticks by deadline kind and result",
			},
			[]string{"kind", "result"},
		),
		qualifying: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminder_assets_qualifying_total",
				Help: "Total number of assets that matched a reminder threshold",
			},
			[]string{"kind"},
		),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_deliveries_total",
				Help: "Total number of delivery attempts by channel and result",
			},
			[]string{"channel", "result"},
		),
		pruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "push_subscriptions_pruned_total",
				Help: "Total number of push subscriptions deleted after the endpoint reported 410 Gone",
			},
		),
		tickTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reminder_tick_duration_seconds",
				Help:    "Duration of reminder ticks in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}

	reg.MustRegister(m.ticks, m.qualifying, m.deliveries, m.pruned, m.tickTime)
	return m
}

// TickFinished records one reminder tick.
func (m *Metrics) TickFinished(kind, result string, qualifying int, seconds float64) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(kind, result).Inc()
	if qualifying > 0 {
		m.qualifying.WithLabelValues(kind).Add(float64(qualifying))
	}
	if result != TickSkipped {
		m.tickTime.WithLabelValues(kind).Observe(seconds)
	}
}

// Delivery records one delivery attempt.
func (m *Metrics) Delivery(channel, result string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(channel, result).Inc()
}

// SubscriptionPruned records a subscription removed after 410 Gone.
func (m *Metrics) SubscriptionPruned() {
	if m == nil {
		return
	}
	m.pruned.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
