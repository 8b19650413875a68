package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jsm-masala/storefront/internal/domain"
)

// NotificationService records and delivers emails handed over by the
// queue notifier.
type NotificationService struct {
	notifications NotificationStore
	mailer        Mailer
	log           *slog.Logger
}

func NewNotificationService(notifications NotificationStore, mailer Mailer, log *slog.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		mailer:        mailer,
		log:           log.With("component", "notifications"),
	}
}

// SendNotification delivers the email keyed by id. A redelivered message
// reuses the existing record and is skipped once it has been sent. A
// delivery failure is returned so the consumer can retry.
func (s *NotificationService) SendNotification(ctx context.Context, id string, email domain.Email) (*domain.Notification, error) {
	if email.To == "" {
		return nil, fmt.Errorf("%w: notification recipient is required", domain.ErrInvalidInput)
	}

	n, err := s.notifications.GetNotification(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		n = domain.NewNotification(id, email)
		if err := s.notifications.CreateNotification(ctx, n); err != nil {
			return nil, fmt.Errorf("failed to record notification: %w", err)
		}
	case err != nil:
		return nil, err
	case n.Status == domain.NotificationStatusSent:
		s.log.Info("notification already sent, skipping", "notification_id", id, "order_id", n.OrderID)
		return n, nil
	}

	if err := s.mailer.Deliver(ctx, n.Email()); err != nil {
		n.MarkAsFailed(err.Error())
		if updateErr := s.notifications.UpdateNotification(ctx, n); updateErr != nil {
			s.log.Error("notification status update error", "notification_id", id, "err", updateErr)
		}
		return n, fmt.Errorf("notification delivery failed: %w", err)
	}

	n.MarkAsSent()
	if err := s.notifications.UpdateNotification(ctx, n); err != nil {
		s.log.Error("notification status update error", "notification_id", id, "err", err)
	}

	s.log.Info("notification sent", "notification_id", id, "order_id", n.OrderID, "recipient", n.Recipient, "subject", n.Subject)
	return n, nil
}

func (s *NotificationService) GetNotificationsByOrderID(ctx context.Context, orderID string) ([]*domain.Notification, error) {
	return s.notifications.GetNotificationsByOrderID(ctx, orderID)
}
