// internal/notification/service.go

package notification

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/anyjobhub/qalbii/internal/common/email"
	"github.com/anyjobhub/qalbii/internal/common/utils"
)

var ErrInvalidType = errors.New("invalid notification type")

type Service interface {
	Create(ctx context.Context, req *CreateNotificationRequest) (*Notification, error)
	List(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) (*NotificationsResponse, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, notificationID, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	Delete(ctx context.Context, notificationID, userID int64) error
	ClearAll(ctx context.Context, userID int64) error

	// NotifyNewMessage records the offline delivery notification for a
	// chat message. It satisfies the chat pipeline's notifier.
	NotifyNewMessage(ctx context.Context, recipientID, senderID, chatID int64, senderName string) error

	// NotifySecurityAlert stores a security notification and, when an
	// email sender is configured, mails the account holder too.
	NotifySecurityAlert(ctx context.Context, userID int64, emailAddr, title, message string) error
}

type notificationService struct {
	repo   Repository
	emails email.Sender
}

// NewService creates the notification service. The email sender may be
// nil, in which case security alerts stay in-app only.
func NewService(repo Repository, emails email.Sender) Service {
	return &notificationService{
		repo:   repo,
		emails: emails,
	}
}

func (s *notificationService) Create(ctx context.Context, req *CreateNotificationRequest) (*Notification, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !req.Type.Valid() {
		return nil, ErrInvalidType
	}

	notification := &Notification{
		UserID:  req.UserID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
		Data:    req.Data,
	}

	if err := s.repo.CreateNotification(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return notification, nil
}

func (s *notificationService) List(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) (*NotificationsResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	notifications, err := s.repo.GetUserNotifications(ctx, userID, limit, offset, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	total, err := s.repo.GetUserNotificationCount(ctx, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	unread, err := s.repo.GetUserNotificationCount(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &NotificationsResponse{
		Notifications: notifications,
		TotalCount:    total,
		UnreadCount:   unread,
		HasMore:       offset+len(notifications) < total,
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.GetUserNotificationCount(ctx, userID, true)
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID int64) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, notificationID, userID int64) error {
	return s.repo.DeleteNotification(ctx, notificationID, userID)
}

func (s *notificationService) ClearAll(ctx context.Context, userID int64) error {
	return s.repo.DeleteAllNotifications(ctx, userID)
}

func (s *notificationService) NotifyNewMessage(ctx context.Context, recipientID, senderID, chatID int64, senderName string) error {
	notification := &Notification{
		UserID:  recipientID,
		Type:    TypeMessage,
		Title:   "New message",
		Message: fmt.Sprintf("%s sent you a message", senderName),
		Data: NotificationData{
			"chat_id":   chatID,
			"sender_id": senderID,
		},
	}

	if err := s.repo.CreateNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to create message notification: %w", err)
	}

	return nil
}

func (s *notificationService) NotifySecurityAlert(ctx context.Context, userID int64, emailAddr, title, message string) error {
	notification := &Notification{
		UserID:  userID,
		Type:    TypeSecurity,
		Title:   title,
		Message: message,
	}

	if err := s.repo.CreateNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to create security notification: %w", err)
	}

	if s.emails != nil && emailAddr != "" {
		err := s.emails.Send(ctx, &email.Message{
			To:      emailAddr,
			Subject: title,
			Body:    message,
		})
		if err != nil {
			// The in-app record exists; email is best effort
			log.Printf("Error sending security email to user %d: %v", userID, err)
		}
	}

	return nil
}
