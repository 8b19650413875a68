package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsm-masala/storefront/pkg/events"
	"github.com/streadway/amqp"
)

const retryHeader = "x-retry-count"

type EventHandler func(ctx context.Context, event events.Event) error

type Consumer struct {
	client        *RabbitMQClient
	queueName     string
	consumerTag   string
	maxDeliveries int
	retryDelay    time.Duration
	log           *slog.Logger

	// subscribe declares and binds the queue and starts a delivery stream.
	subscribe func(routingKeys []string) (<-chan amqp.Delivery, error)
}

func NewConsumer(client *RabbitMQClient, queueName, consumerTag string, log *slog.Logger) *Consumer {
	maxDeliveries := client.config.MaxDeliveries
	if maxDeliveries < 1 {
		maxDeliveries = 1
	}
	c := &Consumer{
		client:        client,
		queueName:     queueName,
		consumerTag:   consumerTag,
		maxDeliveries: maxDeliveries,
		retryDelay:    2 * time.Second,
		log:           log.With("component", "consumer", "queue", queueName),
	}
	c.subscribe = c.bind
	return c
}

// ConsumeEvents binds the queue and dispatches deliveries until ctx is
// cancelled or the client is closed. When the connection drops, the
// consumer waits for the client to reconnect and subscribes again.
func (c *Consumer) ConsumeEvents(ctx context.Context, routingKeys []string, handler EventHandler) error {
	messages, err := c.subscribe(routingKeys)
	if err != nil {
		return err
	}

	reconnected := c.client.NotifyReconnect(make(chan struct{}, 1))
	c.log.Info("consuming events")

	go c.consume(ctx, routingKeys, handler, messages, reconnected)
	return nil
}

func (c *Consumer) consume(
	ctx context.Context,
	routingKeys []string,
	handler EventHandler,
	messages <-chan amqp.Delivery,
	reconnected <-chan struct{},
) {
	for {
		select {
		case msg, ok := <-messages:
			if ok {
				c.handleMessage(ctx, msg, handler)
				continue
			}
			c.log.Warn("delivery channel closed, waiting for reconnect")
			messages = c.resubscribe(ctx, routingKeys, reconnected)
			if messages == nil {
				return
			}
		case <-ctx.Done():
			c.log.Info("consumer stopped")
			return
		case <-c.client.Done():
			c.log.Info("consumer stopped, client closed")
			return
		}
	}
}

// resubscribe blocks until a reconnect yields a new delivery stream. It
// returns nil once ctx is cancelled or the client is closed.
func (c *Consumer) resubscribe(ctx context.Context, routingKeys []string, reconnected <-chan struct{}) <-chan amqp.Delivery {
	for {
		select {
		case <-reconnected:
		case <-ctx.Done():
			c.log.Info("consumer stopped")
			return nil
		case <-c.client.Done():
			c.log.Info("consumer stopped, client closed")
			return nil
		}

		messages, err := c.subscribe(routingKeys)
		if err != nil {
			c.log.Error("resubscribe failed", "err", err)
			continue
		}
		c.log.Info("consuming events after reconnect")
		return messages
	}
}

func (c *Consumer) bind(routingKeys []string) (<-chan amqp.Delivery, error) {
	if !c.client.IsConnected() {
		return nil, ErrNotConnected
	}

	channel := c.client.Channel()

	queue, err := channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("queue declare error: %w", err)
	}

	for _, routingKey := range routingKeys {
		if err := channel.QueueBind(queue.Name, routingKey, c.client.Exchange(), false, nil); err != nil {
			return nil, fmt.Errorf("queue bind error (%s): %w", routingKey, err)
		}
		c.log.Info("queue bound", "routing_key", routingKey)
	}

	messages, err := channel.Consume(
		queue.Name,    // queue
		c.consumerTag, // consumer
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume start error: %w", err)
	}
	return messages, nil
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery, handler EventHandler) {
	var event events.Event

	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.log.Error("event deserialize error", "err", err)
		msg.Nack(false, false)
		return
	}

	log := c.log.With("event_id", event.ID, "event_type", event.EventType)

	if err := handler(ctx, event); err != nil {
		attempt := deliveryCount(msg.Headers)
		log.Error("event process error", "attempt", attempt, "err", err)

		if attempt < c.maxDeliveries {
			c.republish(msg, attempt+1, log)
		} else {
			log.Error("max deliveries reached, dead-lettering")
			msg.Nack(false, false)
		}
		return
	}

	msg.Ack(false)
	log.Debug("event processed")
}

// deliveryCount is 1 for the first delivery.
func deliveryCount(headers amqp.Table) int {
	if v, ok := headers[retryHeader]; ok {
		switch n := v.(type) {
		case int32:
			return int(n)
		case int64:
			return int(n)
		case int:
			return n
		}
	}
	return 1
}

func (c *Consumer) republish(msg amqp.Delivery, attempt int, log *slog.Logger) {
	time.Sleep(c.retryDelay)

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retryHeader] = int32(attempt)

	err := c.client.Channel().Publish(
		msg.Exchange,
		msg.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  msg.ContentType,
			Body:         msg.Body,
			DeliveryMode: msg.DeliveryMode,
			MessageId:    msg.MessageId,
			Timestamp:    msg.Timestamp,
			Headers:      headers,
		},
	)
	if err != nil {
		log.Error("retry publish error", "err", err)
		msg.Nack(false, false)
		return
	}

	msg.Ack(false)
	log.Info("event republished", "attempt", attempt)
}
