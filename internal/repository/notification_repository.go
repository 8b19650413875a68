package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jsm-masala/storefront/internal/domain"
)

type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.exec(ctx, `
		INSERT INTO notifications (
			id, order_id, user_id, status, recipient, subject, message,
			attempts, failure_reason, created_at, sent_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.OrderID, n.UserID, string(n.Status), n.Recipient, n.Subject, n.Message,
		n.Attempts, n.FailureReason, n.CreatedAt, nullTime(n.SentAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: notification %s", domain.ErrConflict, n.ID)
		}
		return fmt.Errorf("notification creation error: %w", err)
	}
	return nil
}

func (r *NotificationRepository) UpdateNotification(ctx context.Context, n *domain.Notification) error {
	res, err := r.db.exec(ctx, `
		UPDATE notifications
		SET status = ?, attempts = ?, failure_reason = ?, sent_at = ?
		WHERE id = ?`,
		string(n.Status), n.Attempts, n.FailureReason, nullTime(n.SentAt), n.ID)
	if err != nil {
		return fmt.Errorf("notification update error: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("notification", n.ID)
	}
	return nil
}

const notificationColumns = `
	id, order_id, user_id, status, recipient, subject, message,
	attempts, failure_reason, created_at, sent_at`

func scanNotification(row rowScanner) (*domain.Notification, error) {
	n := &domain.Notification{}
	var (
		status string
		sentAt sql.NullTime
	)
	err := row.Scan(
		&n.ID, &n.OrderID, &n.UserID, &status, &n.Recipient, &n.Subject, &n.Message,
		&n.Attempts, &n.FailureReason, &n.CreatedAt, &sentAt,
	)
	if err != nil {
		return nil, err
	}
	n.Status = domain.NotificationStatus(status)
	n.SentAt = timePtr(sentAt)
	n.CreatedAt = n.CreatedAt.UTC()
	return n, nil
}

func (r *NotificationRepository) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	n, err := scanNotification(r.db.queryRow(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("notification", id)
		}
		return nil, fmt.Errorf("notification receive error: %w", err)
	}
	return n, nil
}

func (r *NotificationRepository) GetNotificationsByOrderID(ctx context.Context, orderID string) ([]*domain.Notification, error) {
	rows, err := r.db.query(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE order_id = ? ORDER BY created_at DESC, id",
		orderID)
	if err != nil {
		return nil, fmt.Errorf("notifications retrieval error: %w", err)
	}
	defer rows.Close()

	notifications := []*domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("notification scan error: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
