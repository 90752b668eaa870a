package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPNotifier publishes events to a durable RabbitMQ queue consumed by the
// notification service.
type AMQPNotifier struct {
	channel   *amqp.Channel
	queueName string
}

// NewAMQPNotifier connects to the broker and declares the queue.
// The returned cleanup function closes the connection.
func NewAMQPNotifier(url, queueName string) (*AMQPNotifier, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("declare queue: %w", err)
	}

	cleanup := func() {
		ch.Close()
		conn.Close()
	}
	return &AMQPNotifier{channel: ch, queueName: queueName}, cleanup, nil
}

// Notify publishes the event as a persistent JSON message.
func (n *AMQPNotifier) Notify(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = n.channel.PublishWithContext(ctx,
		"",          // default exchange
		n.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}
