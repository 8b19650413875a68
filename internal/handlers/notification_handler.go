package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/jsm-masala/storefront/internal/domain"
	"github.com/jsm-masala/storefront/internal/service"
	"github.com/jsm-masala/storefront/pkg/events"
	sharedHTTP "github.com/jsm-masala/storefront/pkg/http"
	"github.com/jsm-masala/storefront/pkg/messaging"
)

// NotificationRoutingKeys are the bindings of the notifier worker queue.
var NotificationRoutingKeys = []string{"*." + string(events.NotificationSendEvent)}

type NotificationHandler struct {
	notifications *service.NotificationService
	log           *slog.Logger
}

func NewNotificationHandler(notifications *service.NotificationService, log *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, log: log}
}

// HandleEvent is the consumer callback. A returned error makes the
// consumer redeliver the event.
func (h *NotificationHandler) HandleEvent(ctx context.Context, event events.Event) error {
	if event.EventType != events.NotificationSendEvent {
		h.log.Warn("unhandled event type", "event_type", event.EventType, "event_id", event.ID)
		return nil
	}

	var payload events.NotificationSendPayload
	if err := event.Decode(&payload); err != nil {
		// A malformed payload will never succeed; drop it.
		h.log.Error("notification payload rejected", "event_id", event.ID, "err", err)
		return nil
	}

	_, err := h.notifications.SendNotification(ctx, event.ID.String(), domain.Email{
		To:      payload.To,
		Subject: payload.Subject,
		Text:    payload.Text,
		OrderID: payload.OrderID,
		UserID:  payload.UserID,
	})
	if err != nil {
		return fmt.Errorf("notification %s: %w", event.ID, err)
	}
	return nil
}

func (h *NotificationHandler) StartConsuming(ctx context.Context, consumer *messaging.Consumer) error {
	return consumer.ConsumeEvents(ctx, NotificationRoutingKeys, h.HandleEvent)
}

func (h *NotificationHandler) GetNotificationsByOrderID(c *fiber.Ctx) error {
	notifications, err := h.notifications.GetNotificationsByOrderID(c.UserContext(), c.Params("orderId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.SuccessResponse(c, "Notifications retrieved successfully", notifications)
}
