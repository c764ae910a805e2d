// Package metrics holds the Prometheus collectors for the order lifecycle.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "equiprent"

type Metrics struct {
	gatherer prometheus.Gatherer

	transitions      *prometheus.CounterVec
	bookingConflicts prometheus.Counter
	reconcilePasses  *prometheus.CounterVec
	reconciledOrders *prometheus.CounterVec
	passDuration     prometheus.Histogram
	paymentEvents    *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		gatherer: reg,
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "order_transitions_total",
				Help:      "Order status transitions applied, by from/to status and actor role",
			},
			[]string{"from", "to", "actor"},
		),
		bookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Order creations refused because the equipment was already booked",
		}),
		reconcilePasses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_passes_total",
				Help:      "Reconciliation passes by result",
			},
			[]string{"result"},
		),
		reconciledOrders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciled_orders_total",
				Help:      "Orders moved or failed by the reconciler, by kind",
			},
			[]string{"kind"},
		),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_pass_duration_seconds",
			Help:      "Wall time of one reconciliation pass",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		paymentEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_events_total",
				Help:      "Payment provider events by event and outcome",
			},
			[]string{"event", "outcome"},
		),
	}

	reg.MustRegister(m.transitions, m.bookingConflicts, m.reconcilePasses, m.reconciledOrders, m.passDuration, m.paymentEvents)
	return m
}

func (m *Metrics) Transition(from, to, actor string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to, actor).Inc()
}

func (m *Metrics) BookingConflict() {
	if m == nil {
		return
	}
	m.bookingConflicts.Inc()
}

// ReconcilePass records a finished pass. result is "ok", "partial", "error" or "skipped".
func (m *Metrics) ReconcilePass(result string, started, completed, expired, failed int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reconcilePasses.WithLabelValues(result).Inc()
	m.reconciledOrders.WithLabelValues("started").Add(float64(started))
	m.reconciledOrders.WithLabelValues("completed").Add(float64(completed))
	m.reconciledOrders.WithLabelValues("expired").Add(float64(expired))
	m.reconciledOrders.WithLabelValues("failed").Add(float64(failed))
	if elapsed > 0 {
		m.passDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) PaymentEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.paymentEvents.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
