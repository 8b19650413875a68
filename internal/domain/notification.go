package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is the delivery record kept by the notifier worker.
type Notification struct {
	ID            string             `json:"id"`
	OrderID       string             `json:"order_id,omitempty"`
	UserID        string             `json:"user_id,omitempty"`
	Status        NotificationStatus `json:"status"`
	Recipient     string             `json:"recipient"`
	Subject       string             `json:"subject"`
	Message       string             `json:"message"`
	Attempts      int                `json:"attempts"`
	FailureReason string             `json:"failure_reason,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	SentAt        *time.Time         `json:"sent_at,omitempty"`
}

// NewNotification uses id when given so redeliveries map to one record.
func NewNotification(id string, email Email) *Notification {
	if id == "" {
		id = uuid.NewString()
	}
	return &Notification{
		ID:        id,
		OrderID:   email.OrderID,
		UserID:    email.UserID,
		Status:    NotificationStatusPending,
		Recipient: email.To,
		Subject:   email.Subject,
		Message:   email.Text,
		CreatedAt: time.Now().UTC(),
	}
}

func (n *Notification) Email() Email {
	return Email{To: n.Recipient, Subject: n.Subject, Text: n.Message, OrderID: n.OrderID, UserID: n.UserID}
}

func (n *Notification) MarkAsSent() {
	n.Status = NotificationStatusSent
	n.Attempts++
	n.FailureReason = ""
	now := time.Now().UTC()
	n.SentAt = &now
}

func (n *Notification) MarkAsFailed(reason string) {
	n.Status = NotificationStatusFailed
	n.Attempts++
	n.FailureReason = reason
}
