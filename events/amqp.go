package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type connection struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func dial(url string) (*connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &connection{conn: conn, ch: ch}, nil
}

func (c *connection) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// AMQPPublisher publishes order events to the storefront topic exchange
type AMQPPublisher struct {
	*connection
	mu sync.Mutex
}

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	c, err := dial(url)
	if err != nil {
		return nil, err
	}
	return &AMQPPublisher{connection: c}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, evt OrderEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	// channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, Exchange, evt.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    evt.OccurredAt,
		Body:         body,
	})
}

// Consumer reads order events from a durable queue bound to order.*
type Consumer struct {
	*connection
	queue string
}

func NewConsumer(url, queue string, prefetch int) (*Consumer, error) {
	c, err := dial(url)
	if err != nil {
		return nil, err
	}
	if _, err := c.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := c.ch.QueueBind(queue, "order.*", Exchange, false, nil); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &Consumer{connection: c, queue: queue}, nil
}

// Run consumes until ctx is cancelled or the broker closes the channel
func (c *Consumer) Run(ctx context.Context, handle func(OrderEvent) error) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			HandleDelivery(d, handle)
		}
	}
}

// HandleDelivery acks processed events. Undecodable or failed events are dropped, not requeued.
func HandleDelivery(d amqp.Delivery, handle func(OrderEvent) error) {
	log := logrus.WithFields(logrus.Fields{"routing_key": d.RoutingKey, "message_id": d.MessageId})

	var evt OrderEvent
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		log.WithError(err).Error("Dropping malformed order event")
		_ = d.Nack(false, false)
		return
	}
	if err := handle(evt); err != nil {
		log.WithError(err).WithField("order_id", evt.OrderID).Error("Order event handling failed")
		_ = d.Nack(false, false)
		return
	}
	log.WithField("order_id", evt.OrderID).Info("Order event handled")
	_ = d.Ack(false)
}
