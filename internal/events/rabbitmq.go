package events

import (
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQConnection holds a connection and the channel publishers share.
type RabbitMQConnection struct {
	Connection *amqp.Connection
	Channel    *amqp.Channel
}

// NewRabbitMQConnection dials the broker and opens a channel, retrying a few times while it starts up.
func NewRabbitMQConnection(url string) (*RabbitMQConnection, error) {
	var conn *amqp.Connection
	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		slog.Warn("RabbitMQ not reachable yet", "attempt", attempt, "error", err)
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	slog.Info("Connected to RabbitMQ")
	return &RabbitMQConnection{Connection: conn, Channel: ch}, nil
}

// Close closes the channel and then the connection.
func (c *RabbitMQConnection) Close() error {
	if c.Channel != nil {
		if err := c.Channel.Close(); err != nil && err != amqp.ErrClosed {
			return fmt.Errorf("failed to close RabbitMQ channel: %w", err)
		}
	}
	if c.Connection != nil && !c.Connection.IsClosed() {
		if err := c.Connection.Close(); err != nil {
			return fmt.Errorf("failed to close RabbitMQ connection: %w", err)
		}
	}
	return nil
}
