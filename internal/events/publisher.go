// Package events delivers committed ledger events to the outside world.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	portsevents "github.com/SscSPs/school_fee_ledger/internal/core/ports/events"
)

// channel is the slice of *amqp.Channel the publisher uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher publishes ledger events as persistent JSON messages on a durable queue.
type AMQPPublisher struct {
	ch     channel
	closer func() error
	queue  string

	declareOnce sync.Once
	declareErr  error
	mu          sync.Mutex // amqp channels are not safe for concurrent publishes

	published atomic.Int64
	failed    atomic.Int64
}

var _ portsevents.Publisher = (*AMQPPublisher)(nil)

// NewAMQPPublisher creates a publisher on the connection's channel.
func NewAMQPPublisher(conn *RabbitMQConnection, queue string) *AMQPPublisher {
	return &AMQPPublisher{ch: conn.Channel, closer: conn.Close, queue: queue}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event portsevents.Event) error {
	p.declareOnce.Do(func() {
		_, p.declareErr = p.ch.QueueDeclare(p.queue, true, false, false, false, nil)
	})
	if p.declareErr != nil {
		p.failed.Add(1)
		return fmt.Errorf("failed to declare queue %s: %w", p.queue, p.declareErr)
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.failed.Add(1)
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    event.ID,
		Type:         string(event.Type),
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	p.mu.Unlock()
	if err != nil {
		p.failed.Add(1)
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	p.published.Add(1)
	slog.DebugContext(ctx, "Ledger event published", "queue", p.queue, "event_type", event.Type, "event_id", event.ID)
	return nil
}

// Metrics reports publish counters.
func (p *AMQPPublisher) Metrics() map[string]any {
	return map[string]any{
		"messages_published": p.published.Load(),
		"messages_failed":    p.failed.Load(),
		"queue":              p.queue,
	}
}

func (p *AMQPPublisher) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

// LogPublisher writes events to the log. It is used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

var _ portsevents.Publisher = (*LogPublisher)(nil)

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event portsevents.Event) error {
	p.logger.InfoContext(ctx, "Ledger event",
		slog.String("event_type", string(event.Type)),
		slog.String("event_id", event.ID),
		slog.String("actor_id", event.ActorID),
		slog.Time("occurred_at", event.OccurredAt.Truncate(time.Millisecond)),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
