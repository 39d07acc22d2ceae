// Package metrics exposes Prometheus collectors for post scheduling and bot traffic.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/m3rciful/postbot/internal/scheduler"
)

const namespace = "postbot"

// Metrics holds the bot's collectors. A nil *Metrics is a no-op.
type Metrics struct {
	scheduled   prometheus.Counter
	outcomes    *prometheus.CounterVec
	pending     prometheus.Gauge
	lateness    prometheus.Histogram
	transitions *prometheus.CounterVec
	updates     *prometheus.CounterVec
	sends       *prometheus.CounterVec
}

// MustNewMetrics registers the collectors with reg and panics on conflicts.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		scheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "posts_scheduled_total",
			Help:      "Posts accepted by the scheduler.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "post_outcomes_total",
			Help:      "Terminal post outcomes by status.",
		}, []string{"status"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "posts_pending",
			Help:      "Posts waiting for their fire time.",
		}),
		lateness: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "delivery_lateness_seconds",
			Help:      "Delay between fire time and the end of the delivery attempt.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "transitions_total",
			Help:      "Conversation step changes.",
		}, []string{"from", "to"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telegram",
			Name:      "updates_total",
			Help:      "Incoming Telegram updates by kind.",
		}, []string{"kind"}),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telegram",
			Name:      "sends_total",
			Help:      "Outbound Telegram calls by action and result.",
		}, []string{"action", "result"}),
	}
	reg.MustRegister(m.scheduled, m.outcomes, m.pending, m.lateness, m.transitions, m.updates, m.sends)
	return m
}

// Observe implements scheduler.Observer.
func (m *Metrics) Observe(_ context.Context, o scheduler.Outcome) {
	if m == nil {
		return
	}
	if o.Status == scheduler.StatusScheduled {
		m.scheduled.Inc()
		m.pending.Inc()
		return
	}
	m.pending.Dec()
	m.outcomes.WithLabelValues(string(o.Status)).Inc()
	if o.Status == scheduler.StatusDelivered || o.Status == scheduler.StatusFailed {
		m.lateness.Observe(o.Lateness().Seconds())
	}
}

// ObserveTransition counts a wizard step change.
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// ObserveUpdate counts an incoming update.
func (m *Metrics) ObserveUpdate(kind string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(kind).Inc()
}

// ObserveSend counts an outbound call.
func (m *Metrics) ObserveSend(action string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.sends.WithLabelValues(action, result).Inc()
}
