package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-marketplace-orders/internal/metrics"
)

type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	logger  *slog.Logger
}

func NewProducer(brokers []string, topic string, buf int, logger *slog.Logger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		logger:  logger,
	}
}

// Start runs the send loop until Close is called. Messages still queued at
// Close are flushed before the writer shuts down.
func (p *Producer) Start() {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			p.write(m)
		}
		if err := p.w.Close(); err != nil {
			p.logger.Error("close kafka writer", "error", err)
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.logger.Error("publish event", "topic", p.w.Topic, "key", string(m.Key),
			"event_type", Header(m, "x-event-type"), "error", err)
	}
}

// Publish queues a message without blocking. When the buffer is full the
// message is dropped, logged and counted.
func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	m := kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
	select {
	case p.inbox <- m:
	default:
		eventType := Header(m, "x-event-type")
		metrics.EventsDropped.WithLabelValues(eventType).Inc()
		p.logger.Error("event dropped, producer buffer full", "topic", p.w.Topic,
			"key", string(key), "event_type", eventType)
	}
}

// Close stops accepting messages; call it once after the last Publish.
func (p *Producer) Close() { close(p.inbox) }

// WaitClosed blocks until queued messages are flushed.
func (p *Producer) WaitClosed() { <-p.closeCh }
