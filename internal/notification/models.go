// internal/notification/models.go

package notification

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// NotificationType represents different notification types
type NotificationType string

const (
	TypeMessage  NotificationType = "message"
	TypeSystem   NotificationType = "system"
	TypeSecurity NotificationType = "security"
)

func (t NotificationType) Valid() bool {
	switch t {
	case TypeMessage, TypeSystem, TypeSecurity:
		return true
	}
	return false
}

// Notification represents a stored in-app notification. Message
// notifications double as the offline delivery record for chat.
type Notification struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Data      NotificationData `json:"data" db:"data"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	ReadAt    *time.Time       `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// NotificationData carries structured context such as chat and sender IDs
type NotificationData map[string]interface{}

// Scan implements sql.Scanner interface
func (nd *NotificationData) Scan(value interface{}) error {
	if value == nil {
		*nd = make(NotificationData)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, nd)
}

// Value implements driver.Valuer interface
func (nd NotificationData) Value() (driver.Value, error) {
	if nd == nil {
		return "{}", nil
	}
	return json.Marshal(nd)
}

// CreateNotificationRequest represents request to create a notification
type CreateNotificationRequest struct {
	UserID  int64            `json:"user_id" validate:"required,gt=0"`
	Type    NotificationType `json:"type" validate:"required,oneof=message system security"`
	Title   string           `json:"title" validate:"required,max=200"`
	Message string           `json:"message" validate:"required"`
	Data    NotificationData `json:"data,omitempty"`
}

// NotificationsResponse represents paginated notifications response
type NotificationsResponse struct {
	Notifications []*Notification `json:"notifications"`
	TotalCount    int             `json:"total_count"`
	UnreadCount   int             `json:"unread_count"`
	HasMore       bool            `json:"has_more"`
}
