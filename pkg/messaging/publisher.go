package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jsm-masala/storefront/pkg/events"
	"github.com/streadway/amqp"
)

type Publisher struct {
	client *RabbitMQClient
	log    *slog.Logger
}

func NewPublisher(client *RabbitMQClient, log *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		log:    log.With("component", "publisher"),
	}
}

func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.client.IsConnected() {
		return ErrNotConnected
	}

	msg, err := NewPublishing(event)
	if err != nil {
		return err
	}

	routingKey := event.RoutingKey()
	if err := p.client.Channel().Publish(p.client.Exchange(), routingKey, false, false, msg); err != nil {
		return fmt.Errorf("event publish error: %w", err)
	}

	p.log.Debug("event published", "routing_key", routingKey, "event_id", event.ID)
	return nil
}

func (p *Publisher) PublishWithRetry(ctx context.Context, event events.Event, maxRetries int) error {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if err := p.Publish(ctx, event); err != nil {
			lastErr = err
			p.log.Warn("publish error", "retry", i+1, "of", maxRetries, "err", err)

			if i < maxRetries-1 {
				select {
				case <-time.After(time.Second * time.Duration(i+1)):
				case <-ctx.Done():
					return ctx.Err()
				}
				continue
			}
		} else {
			return nil
		}
	}

	return fmt.Errorf("event publish failed after %d attempts: %w", maxRetries, lastErr)
}

// NewPublishing serializes an event into a persistent AMQP message.
func NewPublishing(event events.Event) (amqp.Publishing, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("event serialization error: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID.String(),
		Timestamp:    event.Timestamp,
		Headers: amqp.Table{
			"aggregate_id":   event.AggregateID,
			"correlation_id": event.CorrelationID,
			"service":        event.Service,
			"event_type":     string(event.EventType),
		},
	}, nil
}
