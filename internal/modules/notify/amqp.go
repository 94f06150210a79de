package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	exchangeName = "booking.events"
	queueName    = "booking.notifications.q"
)

// AMQPNotifier publishes notification events to a durable topic exchange.
// A downstream worker owns the actual email/SMS/WhatsApp delivery and its
// retries; this side only has to get the event onto the broker.
type AMQPNotifier struct {
	ch *amqp.Channel
}

// NewAMQPNotifier declares the exchange, queue and binding once at startup.
func NewAMQPNotifier(ch *amqp.Channel) (*AMQPNotifier, error) {
	if err := ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "booking.*", exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("queue bind: %w", err)
	}

	return &AMQPNotifier{ch: ch}, nil
}

func (n *AMQPNotifier) Name() string { return "amqp" }

func (n *AMQPNotifier) Notify(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return n.ch.PublishWithContext(ctx,
		exchangeName,
		ev.Type, // routing key, e.g. booking.cancelled
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}
