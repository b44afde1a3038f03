package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the storefront's Prometheus collectors.
type Metrics struct {
	CheckoutSessions     *prometheus.CounterVec
	WebhookNotifications *prometheus.CounterVec
	SettlementLines      *prometheus.CounterVec
	SettlementDuration   prometheus.Histogram
	OrderTransitions     *prometheus.CounterVec
	OutboxPublished      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CheckoutSessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_checkout_sessions_total",
				Help: "Checkout session creation attempts by outcome.",
			},
			[]string{"outcome"},
		),
		WebhookNotifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_webhook_notifications_total",
				Help: "Payment notifications by result.",
			},
			[]string{"result"},
		),
		SettlementLines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_settlement_lines_total",
				Help: "Settlement lines by outcome.",
			},
			[]string{"outcome"},
		),
		SettlementDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "storefront_settlement_duration_seconds",
				Help:    "Duration of the settlement transaction in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
		OrderTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_order_transitions_total",
				Help: "Open orders collected or cancelled.",
			},
			[]string{"transition", "actor"},
		),
		OutboxPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_outbox_events_total",
				Help: "Outbox events relayed to the broker by outcome.",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(
		m.CheckoutSessions,
		m.WebhookNotifications,
		m.SettlementLines,
		m.SettlementDuration,
		m.OrderTransitions,
		m.OutboxPublished,
	)
	return m
}

// NewNop returns collectors registered nowhere.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) ObserveSettlement(start time.Time) {
	m.SettlementDuration.Observe(time.Since(start).Seconds())
}
