// Package metrics exposes Prometheus collectors for the POS core.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry          *prometheus.Registry
	Settlements       *prometheus.CounterVec
	SettledAmount     prometheus.Counter
	Voids             prometheus.Counter
	DayCloses         *prometheus.CounterVec
	ItemsServed       prometheus.Counter
	NotifyFailures    *prometheus.CounterVec
	SettlementLatency prometheus.Histogram
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "settlements_total",
			Help:      "Settlement attempts by payment method and outcome.",
		}, []string{"method", "outcome"}),
		SettledAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "settled_amount_total",
			Help:      "Sum of grand totals of completed orders.",
		}),
		Voids: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "voids_total",
			Help:      "Orders cancelled instead of completed.",
		}),
		DayCloses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "day_closes_total",
			Help:      "Day close runs by trigger and result.",
		}, []string{"trigger", "result"}),
		ItemsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "kitchen_items_served_total",
			Help:      "Order items moved from pending to served.",
		}),
		NotifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "notify_failures_total",
			Help:      "Change notifications that could not be delivered.",
		}, []string{"event"}),
		SettlementLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pos",
			Name:      "settlement_duration_seconds",
			Help:      "Time spent in the settlement transaction.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.Registry.MustRegister(
		prometheus.NewGoCollector(),
		m.Settlements, m.SettledAmount, m.Voids, m.DayCloses,
		m.ItemsServed, m.NotifyFailures, m.SettlementLatency,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
