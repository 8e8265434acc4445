// Package metrics holds Prometheus instruments that are used across the
// application.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TenantResolveTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_resolve_total",
			Help: "Cumulative number of successful tenant resolutions.",
		})

	TenantResolveErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_resolve_errors_total",
			Help: "Cumulative number of tenant lookups that found no serveable tenant.",
		})

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook deliveries dispatched, by event type.",
		},
		[]string{"type"})

	WebhookSignatureErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_signature_errors_total",
			Help: "Webhook deliveries rejected for an invalid signature.",
		})

	RegistrationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Cumulative number of completed tenant registrations.",
		})
)

func init() {
	prometheus.MustRegister(
		TenantResolveTotal,
		TenantResolveErrorsTotal,
		WebhookEventsTotal,
		WebhookSignatureErrorsTotal,
		RegistrationsTotal,
	)
}
