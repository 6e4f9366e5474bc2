package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends MailMessages to the account.mail queue.  Each publish opens
// its own connection, which keeps the publisher free of reconnect state; mail
// volume is low.
type Publisher struct {
	url string
	log *slog.Logger
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{url: url, log: logger}
}

// Send publishes msg as a persistent JSON message.
func (p *Publisher) Send(ctx context.Context, msg MailMessage) error {
	if msg.SentAt == "" {
		msg.SentAt = time.Now().UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Error("rabbitmq dial failed", "err", err)
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := declare(ch); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", MailQueueName, false, false, pub); err != nil {
		p.log.Error("rabbitmq publish failed", "err", err, "kind", msg.Kind)
		return fmt.Errorf("publish mail: %w", err)
	}
	p.log.Info("mail queued", "kind", msg.Kind, "variant", msg.Variant)
	return nil
}

// declare makes sure the durable queue exists.
func declare(ch *amqp.Channel) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		MailQueueName, // name
		true,          // durable
		false,         // autoDelete
		false,         // exclusive
		false,         // noWait
		nil,           // args
	)
	if err != nil {
		return q, fmt.Errorf("queue declare: %w", err)
	}
	return q, nil
}
