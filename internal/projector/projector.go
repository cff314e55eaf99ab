// Package projector keeps seller read models in step with order events.
package projector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-marketplace-orders/internal/analytics"
	kafkax "github.com/ariefcatur/go-marketplace-orders/internal/kafka"
	"github.com/ariefcatur/go-marketplace-orders/internal/metrics"
	"github.com/ariefcatur/go-marketplace-orders/internal/orders"
)

type Dedup interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type Snapshots interface {
	Refresh(ctx context.Context, sellerID string) (analytics.Snapshot, error)
}

type DashboardCache interface {
	Invalidate(ctx context.Context, sellerID string) error
}

var errMalformed = errors.New("malformed event")

type Projector struct {
	Dedup     Dedup
	Snapshots Snapshots
	Dashboard DashboardCache
	Logger    *slog.Logger
}

// Handle is installed as the consumer handler for orders.TopicOrderEvents.
// Malformed and unknown events are acknowledged and dropped.
func (p *Projector) Handle(ctx context.Context, m kafkago.Message) error {
	eventType := kafkax.Header(m, "x-event-type")

	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil || env.EventID == "" || env.SellerID == "" {
		p.Logger.WarnContext(ctx, "drop event", "offset", m.Offset, "reason", errMalformed)
		metrics.EventsConsumed.WithLabelValues(eventType, "malformed").Inc()
		return nil
	}
	if eventType == "" {
		eventType = env.EventType
	}

	orderID, known := describe(env)
	if !known {
		metrics.EventsConsumed.WithLabelValues(env.EventType, "ignored").Inc()
		return nil
	}

	first, err := p.Dedup.Claim(ctx, env.EventID)
	if err != nil {
		// Projection is idempotent; an unreachable dedup store only costs a refresh.
		p.Logger.WarnContext(ctx, "dedup claim", "event_id", env.EventID, "error", err)
		first = true
	}
	if !first {
		metrics.EventsConsumed.WithLabelValues(env.EventType, "duplicate").Inc()
		return nil
	}

	if err := p.project(ctx, env.SellerID); err != nil {
		// ctx may already be cancelled during shutdown
		if rerr := p.Dedup.Release(context.WithoutCancel(ctx), env.EventID); rerr != nil {
			p.Logger.WarnContext(ctx, "dedup release", "event_id", env.EventID, "error", rerr)
		}
		metrics.EventsConsumed.WithLabelValues(env.EventType, "error").Inc()
		return fmt.Errorf("project %s %s: %w", env.EventType, env.EventID, err)
	}

	metrics.EventsConsumed.WithLabelValues(env.EventType, "applied").Inc()
	p.Logger.InfoContext(ctx, "event projected", "event_type", env.EventType, "event_id", env.EventID,
		"seller_id", env.SellerID, "order_id", orderID, "trace_id", env.TraceID)
	return nil
}

func (p *Projector) project(ctx context.Context, sellerID string) error {
	if _, err := p.Snapshots.Refresh(ctx, sellerID); err != nil {
		return fmt.Errorf("refresh snapshot: %w", err)
	}
	if p.Dashboard != nil {
		if err := p.Dashboard.Invalidate(ctx, sellerID); err != nil {
			p.Logger.WarnContext(ctx, "invalidate dashboard", "seller_id", sellerID, "error", err)
		}
	}
	return nil
}

// describe returns the order id an event refers to, and false for event
// types this projector does not handle.
func describe(env orders.Envelope) (string, bool) {
	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.DecodePayload[orders.OrderCreatedPayload](env.Payload)
		return pick(p.OrderID, env.CorrelationID, err), true
	case orders.EventOrderStatusChanged:
		p, err := kafkax.DecodePayload[orders.OrderStatusChangedPayload](env.Payload)
		return pick(p.OrderID, env.CorrelationID, err), true
	case orders.EventOrderPaymentChanged:
		p, err := kafkax.DecodePayload[orders.OrderPaymentChangedPayload](env.Payload)
		return pick(p.OrderID, env.CorrelationID, err), true
	default:
		return "", false
	}
}

func pick(fromPayload, fallback string, err error) string {
	if err != nil || fromPayload == "" {
		return fallback
	}
	return fromPayload
}
