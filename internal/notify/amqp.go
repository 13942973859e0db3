package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/streadway/amqp"
)

type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQP publishes run events to a durable queue through the default exchange.
type AMQP struct {
	ch    publisher
	conn  *amqp.Connection
	queue string
}

// NewAMQP dials the broker and declares queue.
func NewAMQP(url, queue string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return &AMQP{ch: ch, conn: conn, queue: queue}, nil
}

// Notify publishes one persistent JSON message. The context is checked before
// publishing; the channel API itself does not accept one.
func (a *AMQP) Notify(ctx context.Context, event RunEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := event.Encode()
	if err != nil {
		return err
	}
	return a.ch.Publish("", a.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.RunID,
		Timestamp:    event.FinishedAt,
		Type:         "pipeline.run_finished",
		Body:         payload,
	})
}

// Close closes the channel and the connection.
func (a *AMQP) Close() error {
	var errs []error
	if err := a.ch.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing RabbitMQ channel: %w", err))
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing RabbitMQ connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
