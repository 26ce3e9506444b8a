package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/anyjobhub/qalbii/internal/common/email"
	"github.com/anyjobhub/qalbii/internal/notification"
)

// fakeRepo is an in-memory notification.Repository.
type fakeRepo struct {
	notifications []*notification.Notification
	nextID        int64
}

func (r *fakeRepo) CreateNotification(ctx context.Context, n *notification.Notification) error {
	r.nextID++
	n.ID = r.nextID
	n.CreatedAt = time.Now()
	stored := *n
	r.notifications = append(r.notifications, &stored)
	return nil
}

func (r *fakeRepo) GetUserNotifications(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) ([]*notification.Notification, error) {
	matched := r.forUser(userID, unreadOnly)
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *fakeRepo) GetUserNotificationCount(ctx context.Context, userID int64, unreadOnly bool) (int, error) {
	return len(r.forUser(userID, unreadOnly)), nil
}

func (r *fakeRepo) MarkAsRead(ctx context.Context, notificationID, userID int64) error {
	for _, n := range r.notifications {
		if n.ID == notificationID && n.UserID == userID {
			now := time.Now()
			n.IsRead = true
			n.ReadAt = &now
			break
		}
	}
	return nil
}

func (r *fakeRepo) MarkAllAsRead(ctx context.Context, userID int64) error {
	now := time.Now()
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
		}
	}
	return nil
}

func (r *fakeRepo) DeleteNotification(ctx context.Context, notificationID, userID int64) error {
	for i, n := range r.notifications {
		if n.ID == notificationID && n.UserID == userID {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeRepo) DeleteAllNotifications(ctx context.Context, userID int64) error {
	kept := r.notifications[:0]
	for _, n := range r.notifications {
		if n.UserID != userID {
			kept = append(kept, n)
		}
	}
	r.notifications = kept
	return nil
}

func (r *fakeRepo) DeleteOldNotifications(ctx context.Context, before time.Time) error {
	kept := r.notifications[:0]
	for _, n := range r.notifications {
		if !n.IsRead || n.CreatedAt.After(before) {
			kept = append(kept, n)
		}
	}
	r.notifications = kept
	return nil
}

func (r *fakeRepo) forUser(userID int64, unreadOnly bool) []*notification.Notification {
	var out []*notification.Notification
	for _, n := range r.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out
}

func seedMessages(t *testing.T, repo *fakeRepo, userID int64, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		err := repo.CreateNotification(context.Background(), &notification.Notification{
			UserID:  userID,
			Type:    notification.TypeMessage,
			Title:   "New message",
			Message: "someone sent you a message",
		})
		if err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}
}

func TestNotifyNewMessage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := &fakeRepo{}
	svc := notification.NewService(repo, nil)

	if err := svc.NotifyNewMessage(ctx, 2, 1, 10, "Amina Hassan"); err != nil {
		t.Fatalf("NotifyNewMessage: %v", err)
	}

	if len(repo.notifications) != 1 {
		t.Fatalf("notifications = %d, want 1", len(repo.notifications))
	}
	n := repo.notifications[0]
	if n.UserID != 2 {
		t.Errorf("UserID = %d, want 2", n.UserID)
	}
	if n.Type != notification.TypeMessage {
		t.Errorf("Type = %q, want %q", n.Type, notification.TypeMessage)
	}
	if n.Message != "Amina Hassan sent you a message" {
		t.Errorf("Message = %q", n.Message)
	}
	if n.Data["chat_id"] != int64(10) || n.Data["sender_id"] != int64(1) {
		t.Errorf("Data = %+v", n.Data)
	}
	if n.IsRead {
		t.Error("fresh notification marked read")
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid request", func(t *testing.T) {
		t.Parallel()
		repo := &fakeRepo{}
		svc := notification.NewService(repo, nil)

		n, err := svc.Create(ctx, &notification.CreateNotificationRequest{
			UserID:  1,
			Type:    notification.TypeSystem,
			Title:   "Welcome",
			Message: "Your account is ready",
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if n.ID == 0 {
			t.Error("notification was not persisted")
		}
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		t.Parallel()
		repo := &fakeRepo{}
		svc := notification.NewService(repo, nil)

		_, err := svc.Create(ctx, &notification.CreateNotificationRequest{
			UserID:  1,
			Type:    "marketing",
			Title:   "Sale",
			Message: "Buy now",
		})
		if err == nil {
			t.Error("unknown type was accepted")
		}
	})
}

func TestList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("paginates and reports HasMore", func(t *testing.T) {
		t.Parallel()
		repo := &fakeRepo{}
		svc := notification.NewService(repo, nil)
		seedMessages(t, repo, 1, 7)

		resp, err := svc.List(ctx, 1, 5, 0, false)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(resp.Notifications) != 5 {
			t.Errorf("page size = %d, want 5", len(resp.Notifications))
		}
		if resp.TotalCount != 7 || resp.UnreadCount != 7 {
			t.Errorf("counts = (%d, %d), want (7, 7)", resp.TotalCount, resp.UnreadCount)
		}
		if !resp.HasMore {
			t.Error("HasMore = false with a remaining page")
		}

		resp, err = svc.List(ctx, 1, 5, 5, false)
		if err != nil {
			t.Fatalf("List page 2: %v", err)
		}
		if len(resp.Notifications) != 2 {
			t.Errorf("page size = %d, want 2", len(resp.Notifications))
		}
		if resp.HasMore {
			t.Error("HasMore = true on the last page")
		}
	})

	t.Run("clamps a bad limit", func(t *testing.T) {
		t.Parallel()
		repo := &fakeRepo{}
		svc := notification.NewService(repo, nil)
		seedMessages(t, repo, 1, 60)

		for _, limit := range []int{0, -5, 1000} {
			resp, err := svc.List(ctx, 1, limit, 0, false)
			if err != nil {
				t.Fatalf("List(limit=%d): %v", limit, err)
			}
			if len(resp.Notifications) != 50 {
				t.Errorf("limit %d: page size = %d, want 50", limit, len(resp.Notifications))
			}
		}
	})

	t.Run("unread only", func(t *testing.T) {
		t.Parallel()
		repo := &fakeRepo{}
		svc := notification.NewService(repo, nil)
		seedMessages(t, repo, 1, 3)
		if err := svc.MarkRead(ctx, repo.notifications[0].ID, 1); err != nil {
			t.Fatalf("MarkRead: %v", err)
		}

		resp, err := svc.List(ctx, 1, 10, 0, true)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(resp.Notifications) != 2 {
			t.Errorf("unread = %d, want 2", len(resp.Notifications))
		}
		if resp.UnreadCount != 2 {
			t.Errorf("UnreadCount = %d, want 2", resp.UnreadCount)
		}
	})
}

func TestMarkRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := &fakeRepo{}
	svc := notification.NewService(repo, nil)
	seedMessages(t, repo, 1, 2)
	seedMessages(t, repo, 2, 1)

	t.Run("another user's notification stays unread", func(t *testing.T) {
		if err := svc.MarkRead(ctx, repo.notifications[2].ID, 1); err != nil {
			t.Fatalf("MarkRead: %v", err)
		}
		if repo.notifications[2].IsRead {
			t.Error("notification owned by another user was marked read")
		}
	})

	t.Run("mark all read touches only the caller", func(t *testing.T) {
		if err := svc.MarkAllRead(ctx, 1); err != nil {
			t.Fatalf("MarkAllRead: %v", err)
		}
		got, err := svc.UnreadCount(ctx, 1)
		if err != nil {
			t.Fatalf("UnreadCount: %v", err)
		}
		if got != 0 {
			t.Errorf("unread for user 1 = %d, want 0", got)
		}
		other, err := svc.UnreadCount(ctx, 2)
		if err != nil {
			t.Fatalf("UnreadCount: %v", err)
		}
		if other != 1 {
			t.Errorf("unread for user 2 = %d, want 1", other)
		}
	})
}

func TestNotifySecurityAlert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("stores in-app and emails when configured", func(t *testing.T) {
		t.Parallel()
		repo := &fakeRepo{}
		emails := email.NewMockSender()
		svc := notification.NewService(repo, emails)

		err := svc.NotifySecurityAlert(ctx, 1, "amina@example.com", "Password changed", "Your password was just changed.")
		if err != nil {
			t.Fatalf("NotifySecurityAlert: %v", err)
		}

		if len(repo.notifications) != 1 || repo.notifications[0].Type != notification.TypeSecurity {
			t.Error("security notification was not stored")
		}
		sent := emails.Sent()
		if len(sent) != 1 {
			t.Fatalf("emails = %d, want 1", len(sent))
		}
		if sent[0].To != "amina@example.com" || sent[0].Subject != "Password changed" {
			t.Errorf("email = %+v", sent[0])
		}
	})

	t.Run("in-app only without a sender", func(t *testing.T) {
		t.Parallel()
		repo := &fakeRepo{}
		svc := notification.NewService(repo, nil)

		err := svc.NotifySecurityAlert(ctx, 1, "amina@example.com", "New login", "A new device signed in.")
		if err != nil {
			t.Fatalf("NotifySecurityAlert: %v", err)
		}
		if len(repo.notifications) != 1 {
			t.Error("security notification was not stored")
		}
	})
}
