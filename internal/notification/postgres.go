// internal/notification/postgres.go

package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
)

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// CreateNotification creates a new notification
func (r *postgresRepository) CreateNotification(ctx context.Context, notification *Notification) error {
	query := `
        INSERT INTO notifications (user_id, type, title, message, data, is_read)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`

	dataJSON, err := json.Marshal(notification.Data)
	if err != nil {
		return err
	}

	return r.db.QueryRowContext(ctx, query,
		notification.UserID,
		notification.Type,
		notification.Title,
		notification.Message,
		dataJSON,
		notification.IsRead,
	).Scan(&notification.ID, &notification.CreatedAt)
}

// GetUserNotifications retrieves notifications for a user, newest first
func (r *postgresRepository) GetUserNotifications(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) ([]*Notification, error) {
	query := `
        SELECT id, user_id, type, title, message, data, is_read, read_at, created_at
        FROM notifications
        WHERE user_id = $1`

	if unreadOnly {
		query += " AND is_read = false"
	}

	query += " ORDER BY created_at DESC LIMIT $2 OFFSET $3"

	notifications := []*Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit, offset); err != nil {
		return nil, err
	}
	return notifications, nil
}

// GetUserNotificationCount gets notification count for a user
func (r *postgresRepository) GetUserNotificationCount(ctx context.Context, userID int64, unreadOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1`

	if unreadOnly {
		query += " AND is_read = false"
	}

	var count int
	err := r.db.GetContext(ctx, &count, query, userID)
	return count, err
}

// MarkAsRead marks a notification as read
func (r *postgresRepository) MarkAsRead(ctx context.Context, notificationID, userID int64) error {
	query := `
        UPDATE notifications
        SET is_read = true, read_at = NOW()
        WHERE id = $1 AND user_id = $2 AND is_read = false`

	_, err := r.db.ExecContext(ctx, query, notificationID, userID)
	return err
}

// MarkAllAsRead marks all of a user's notifications as read
func (r *postgresRepository) MarkAllAsRead(ctx context.Context, userID int64) error {
	query := `
        UPDATE notifications
        SET is_read = true, read_at = NOW()
        WHERE user_id = $1 AND is_read = false`

	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// DeleteNotification deletes a notification owned by the user
func (r *postgresRepository) DeleteNotification(ctx context.Context, notificationID, userID int64) error {
	query := `DELETE FROM notifications WHERE id = $1 AND user_id = $2`

	_, err := r.db.ExecContext(ctx, query, notificationID, userID)
	return err
}

// DeleteAllNotifications clears a user's notification list
func (r *postgresRepository) DeleteAllNotifications(ctx context.Context, userID int64) error {
	query := `DELETE FROM notifications WHERE user_id = $1`

	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// DeleteOldNotifications prunes read notifications older than the cutoff
func (r *postgresRepository) DeleteOldNotifications(ctx context.Context, before time.Time) error {
	query := `DELETE FROM notifications WHERE is_read = true AND created_at < $1`

	_, err := r.db.ExecContext(ctx, query, before)
	return err
}
