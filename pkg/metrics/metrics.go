// Package metrics exposes Prometheus instrumentation for the ingest and
// fan-out pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SpansReceived counts every span seen on the OTLP ingress, relevant or not.
	SpansReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_spans_received_total",
		Help: "Total spans received on the OTLP ingress endpoint.",
	})

	// EventsProduced counts communication events by type.
	EventsProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_events_produced_total",
		Help: "Communication events produced by the span preprocessor.",
	}, []string{"event_type"})

	// EventsDelivered counts successful per-subscriber event deliveries.
	EventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_events_delivered_total",
		Help: "Events delivered to WebSocket subscribers.",
	})

	// SubscriberEvictions counts subscribers removed after a send failure.
	SubscriberEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_subscriber_evictions_total",
		Help: "Subscribers evicted because a send failed.",
	})

	// ActiveSubscribers tracks the current number of live subscriber connections.
	ActiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_active_subscribers",
		Help: "Currently connected WebSocket subscribers.",
	})
)
