package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher sends events to RabbitMQ.  Each publish dials its own
// connection; event volume is a handful per minute so pooling is not worth
// the reconnect bookkeeping.  Errors are logged and returned so callers can
// ignore them without interrupting the request.
type Publisher struct {
	url string
	log *logrus.Entry
}

func NewPublisher(url string, log *logrus.Entry) *Publisher {
	return &Publisher{url: url, log: log}
}

func (p *Publisher) PublishBehaviorRecorded(ctx context.Context, ev BehaviorRecordedEvent) error {
	return p.publish(ctx, BehaviorRecordedQueue, ev)
}

func (p *Publisher) PublishMessageSent(ctx context.Context, ev MessageSentEvent) error {
	return p.publish(ctx, MessageSentQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
	log := p.log.WithField("queue", queue)
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.WithError(err).Warn("rabbitmq dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Warn("rabbitmq channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if err := declare(ch, queue); err != nil {
		log.WithError(err).Warn("rabbitmq queue declare failed")
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		log.WithError(err).Warn("rabbitmq publish failed")
		return err
	}
	return nil
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	return err
}
