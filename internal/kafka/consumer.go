package kafka

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var consumerTracer = otel.Tracer("github.com/ariefcatur/go-marketplace-orders/internal/kafka")

// Handler returns nil only when the message is done and its offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

// Backoff bounds the delay between handler retries.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

func (b Backoff) next(d time.Duration) time.Duration {
	if d == 0 {
		return b.Initial
	}
	d *= 2
	if d > b.Max {
		return b.Max
	}
	return d
}

type Consumer struct {
	r       *kafka.Reader
	topic   string
	group   string
	workers int
	backoff Backoff
	logger  *slog.Logger
}

func NewConsumer(brokers []string, group, topic string, workers int, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		r: r, topic: topic, group: group, workers: workers, logger: logger,
		backoff: Backoff{Initial: 200 * time.Millisecond, Max: 30 * time.Second},
	}
}

// workerFor pins a partition to one worker so its offsets are handled and
// committed in order.
func workerFor(partition, workers int) int {
	if partition < 0 {
		partition = -partition
	}
	return partition % workers
}

// Start fetches messages and hands each partition's messages to its worker
// until ctx is cancelled. A failing message is retried until it succeeds,
// holding back the rest of its partition; its offset is never committed
// past.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	queues := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan kafka.Message, 256)
		wg.Add(1)
		go func(jobs <-chan kafka.Message) {
			defer wg.Done()
			for m := range jobs {
				if ctx.Err() != nil {
					continue // drain; uncommitted messages are redelivered
				}
				c.process(ctx, m, h)
			}
		}(queues[i])
	}
	defer wg.Wait()
	defer func() {
		for _, q := range queues {
			close(q)
		}
	}()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		select {
		case queues[workerFor(m.Partition, c.workers)] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Consumer) process(ctx context.Context, m kafka.Message, h Handler) {
	parent := otel.GetTextMapPropagator().Extract(ctx, NewHeaderCarrier(&m.Headers))
	spanCtx, span := consumerTracer.Start(parent, "process "+c.topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationTypeDeliver,
			semconv.MessagingDestinationName(c.topic),
			semconv.MessagingKafkaConsumerGroup(c.group),
			semconv.MessagingKafkaMessageOffset(int(m.Offset)),
			semconv.MessagingDestinationPartitionID(strconv.Itoa(m.Partition)),
			semconv.MessagingKafkaMessageKey(string(m.Key)),
		),
	)
	defer span.End()

	if err := retry(spanCtx, c.backoff, func(attempt int) error {
		err := h(spanCtx, m)
		if err != nil {
			span.RecordError(err)
			c.logger.ErrorContext(spanCtx, "handle message", "topic", c.topic, "partition", m.Partition,
				"offset", m.Offset, "attempt", attempt, "error", err)
		}
		return err
	}); err != nil {
		// only reached on shutdown; the offset stays uncommitted
		span.SetStatus(codes.Error, err.Error())
		return
	}
	if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		c.logger.ErrorContext(spanCtx, "commit offset", "offset", m.Offset, "error", err)
	}
}

// retry calls fn until it returns nil or ctx is done, sleeping with
// exponential backoff between attempts. It returns the last error only when
// ctx ended first.
func retry(ctx context.Context, b Backoff, fn func(attempt int) error) error {
	var wait time.Duration
	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		wait = b.next(wait)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
}
