// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_orders_created_total",
		Help: "Orders placed, excluding idempotent replays.",
	})

	OrderCreateFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_order_create_failures_total",
		Help: "Rejected order placements by reason.",
	}, []string{"reason"})

	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_order_transitions_total",
		Help: "Applied order status changes.",
	}, []string{"from", "to"})

	ReportsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_sales_reports_total",
		Help: "Sales reports by source (measured or demo) and reason.",
	}, []string{"source", "reason"})

	DashboardDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketplace_dashboard_compose_seconds",
		Help:    "Time to build a seller dashboard.",
		Buckets: prometheus.DefBuckets,
	}, []string{"cache"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_events_published_total",
		Help: "Order events handed to the producer.",
	}, []string{"type"})

	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_events_dropped_total",
		Help: "Order events dropped because the producer buffer was full.",
	}, []string{"type"})

	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_events_consumed_total",
		Help: "Order events handled by the analytics projector.",
	}, []string{"type", "outcome"})
)
