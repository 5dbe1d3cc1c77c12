package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"notification_feed/internal/logger"
)

// Producer publishes notification events to a durable queue.
type Producer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewProducer(url string) (*Producer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return &Producer{conn, ch}, nil
}

func declare(ch *amqp.Channel, queueName string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
}

func (p *Producer) Publish(ctx context.Context, queueName, contentType string, body []byte) error {
	if _, err := declare(p.ch, queueName); err != nil {
		return fmt.Errorf("declare queue %s: %w", queueName, err)
	}

	return p.ch.PublishWithContext(
		ctx,
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  contentType,
			Body:         body,
		},
	)
}

// PublishJSON marshals v and publishes it as application/json.
func (p *Producer) PublishJSON(ctx context.Context, queueName string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return p.Publish(ctx, queueName, "application/json", body)
}

func (p *Producer) Close() {
	p.ch.Close()
	p.conn.Close()
}

// Consumer delivers messages from one queue to a pool of workers.
type Consumer struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	workers int
}

func NewConsumer(url, queue string, workers int) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.Qos(workers, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{
		conn:    conn,
		ch:      ch,
		queue:   queue,
		workers: workers,
	}, nil
}

// Consume runs handler for every delivery until ctx is done or the channel
// closes. A nil handler error acks the message; any other error nacks it
// with requeue unless the error is permanent. It always returns non-nil.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, []byte) error) error {
	log := logger.Component("queue").WithField("queue", c.queue)

	q, err := declare(c.ch, c.queue)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}

	log.Infof("Consuming queue: %s (messages: %d)", q.Name, q.Messages)

	msgs, err := c.ch.ConsumeWithContext(
		ctx,
		q.Name,
		"",    // consumer
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	done := make(chan struct{})
	for i := 0; i < c.workers; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for msg := range msgs {
				settle(ctx, log, msg, msg.Body, handler)
			}
		}()
	}
	for i := 0; i < c.workers; i++ {
		<-done
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.New("delivery channel closed")
}

// Acknowledger settles one delivery; amqp.Delivery implements it.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func settle(ctx context.Context, log *logger.Entry, d Acknowledger, body []byte, handler func(context.Context, []byte) error) {
	err := handler(ctx, body)
	switch {
	case err == nil:
		d.Ack(false)
	case IsPermanent(err):
		d.Nack(false, false)
		log.WithError(err).Warn("Dropping message")
	default:
		d.Nack(false, true)
		log.WithError(err).Error("Task failed")
	}
}

func (c *Consumer) Close() {
	c.ch.Close()
	c.conn.Close()
}
