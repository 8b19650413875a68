// Package notify holds the Notifier and Mailer implementations the
// storefront and the notifier worker are wired with.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsm-masala/storefront/internal/domain"
	"github.com/jsm-masala/storefront/pkg/events"
)

// ServiceName is the event source for everything the storefront publishes.
const ServiceName = "storefront"

const publishAttempts = 3

type EventPublisher interface {
	PublishWithRetry(ctx context.Context, event events.Event, maxRetries int) error
}

// QueueNotifier hands emails to the notifier worker as notification.send
// events. The event id doubles as the delivery idempotency key.
type QueueNotifier struct {
	publisher EventPublisher
	log       *slog.Logger
}

func NewQueueNotifier(publisher EventPublisher, log *slog.Logger) *QueueNotifier {
	return &QueueNotifier{
		publisher: publisher,
		log:       log.With("component", "queue-notifier"),
	}
}

func (n *QueueNotifier) Send(ctx context.Context, email domain.Email) error {
	event, err := events.New(events.NotificationSendEvent, ServiceName, email.OrderID, events.NotificationSendPayload{
		OrderID: email.OrderID,
		UserID:  email.UserID,
		To:      email.To,
		Subject: email.Subject,
		Text:    email.Text,
	})
	if err != nil {
		return err
	}
	event.CorrelationID = email.OrderID

	if err := n.publisher.PublishWithRetry(ctx, event, publishAttempts); err != nil {
		return fmt.Errorf("notification enqueue error: %w", err)
	}

	n.log.Info("notification queued", "event_id", event.ID, "order_id", email.OrderID, "subject", email.Subject)
	return nil
}

// LogNotifier only logs the email. Used when no broker is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With("component", "log-notifier")}
}

func (n *LogNotifier) Send(ctx context.Context, email domain.Email) error {
	n.log.InfoContext(ctx, "email notification",
		"order_id", email.OrderID, "user_id", email.UserID, "to", email.To, "subject", email.Subject)
	return nil
}
