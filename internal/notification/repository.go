// internal/notification/repository.go

package notification

import (
	"context"
	"time"
)

type Repository interface {
	CreateNotification(ctx context.Context, notification *Notification) error
	GetUserNotifications(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) ([]*Notification, error)
	GetUserNotificationCount(ctx context.Context, userID int64, unreadOnly bool) (int, error)
	MarkAsRead(ctx context.Context, notificationID, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
	DeleteNotification(ctx context.Context, notificationID, userID int64) error
	DeleteAllNotifications(ctx context.Context, userID int64) error
	DeleteOldNotifications(ctx context.Context, before time.Time) error
}
