// Package metrics содержит prometheus-метрики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookEventsTotal считает доставки webhook по типу события и результату.
	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "membership",
		Name:      "webhook_events_total",
		Help:      "Total Stripe webhook deliveries by event type and outcome.",
	}, []string{"event_type", "outcome"})

	// WebhookDuration измеряет длительность обработки webhook-события.
	WebhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "membership",
		Name:      "webhook_duration_seconds",
		Help:      "Stripe webhook processing duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event_type"})

	// CheckoutSessionsTotal считает попытки создания checkout-сессий по исходу.
	CheckoutSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "membership",
		Name:      "checkout_sessions_total",
		Help:      "Total checkout session creation attempts by outcome.",
	}, []string{"outcome"})
)
