// internal/chat/models.go

package chat

import (
	"time"
)

// MessageStatus is the delivery state of a message.
// The sequence is sent -> delivered -> read; updates are last-write-wins
// and the server does not reject backward transitions (clients send
// idempotent status pushes and rely on that).
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// Valid reports whether the value is a known status
func (s MessageStatus) Valid() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusRead:
		return true
	}
	return false
}

// MediaType identifies the kind of media attached to a message
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
)

// Media is an attachment reference stored alongside a message
type Media struct {
	Type MediaType `json:"type"`
	URL  string    `json:"url"`
}

// IsZero reports whether no media is attached
func (m Media) IsZero() bool {
	return m.Type == "" && m.URL == ""
}

// Valid reports whether the media descriptor is usable
func (m Media) Valid() bool {
	if m.IsZero() {
		return true
	}
	if m.URL == "" {
		return false
	}
	switch m.Type {
	case MediaImage, MediaVideo, MediaAudio:
		return true
	}
	return false
}

// UserInfo is the slice of a user shown inside chats and messages
type UserInfo struct {
	ID             int64      `json:"id" db:"id"`
	Username       string     `json:"username" db:"username"`
	FullName       string     `json:"full_name" db:"full_name"`
	ProfilePicture *string    `json:"profile_picture,omitempty" db:"profile_picture"`
	IsOnline       bool       `json:"is_online" db:"is_online"`
	LastSeen       *time.Time `json:"last_seen,omitempty" db:"last_seen"`
}

// ChatDeletion records that a participant hid the chat from their list
type ChatDeletion struct {
	UserID    int64     `json:"user_id" db:"user_id"`
	DeletedAt time.Time `json:"deleted_at" db:"deleted_at"`
}

// Chat is a conversation between exactly two users. The participant pair
// is fixed for the life of the chat and stored normalized (UserOneID <
// UserTwoID) so the pair maps to a single row regardless of who started it.
type Chat struct {
	ID            int64     `json:"id" db:"id"`
	UserOneID     int64     `json:"-" db:"user_one_id"`
	UserTwoID     int64     `json:"-" db:"user_two_id"`
	LastMessageID *int64    `json:"-" db:"last_message_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`

	// Loaded projections
	Participants []*UserInfo    `json:"participants,omitempty"`
	LastMessage  *Message       `json:"last_message,omitempty"`
	DeletedBy    []ChatDeletion `json:"-"`
}

// NormalizePair orders two user ids for storage
func NormalizePair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// HasParticipant reports whether the user belongs to this chat
func (c *Chat) HasParticipant(userID int64) bool {
	return c.UserOneID == userID || c.UserTwoID == userID
}

// OtherParticipant returns the participant that is not the given user
func (c *Chat) OtherParticipant(userID int64) int64 {
	if c.UserOneID == userID {
		return c.UserTwoID
	}
	return c.UserOneID
}

// HiddenFor reports whether the user has soft-deleted this chat
func (c *Chat) HiddenFor(userID int64) bool {
	for _, d := range c.DeletedBy {
		if d.UserID == userID {
			return true
		}
	}
	return false
}

// Message is a single chat message. Messages are never removed from
// storage; per-user hiding goes through deletedFor rows and sender-initiated
// removal for everyone flips DeletedForEveryone, which is terminal.
type Message struct {
	ID                 int64         `json:"id" db:"id"`
	ChatID             int64         `json:"chat_id" db:"chat_id"`
	SenderID           int64         `json:"sender_id" db:"sender_id"`
	ReplyToID          *int64        `json:"reply_to_id,omitempty" db:"reply_to_id"`
	Content            string        `json:"content" db:"content"`
	Media              Media         `json:"media"`
	Status             MessageStatus `json:"status" db:"status"`
	DeletedForEveryone bool          `json:"deleted_for_everyone" db:"deleted_for_everyone"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`

	// Loaded projections
	Sender  *UserInfo `json:"sender,omitempty"`
	ReplyTo *Message  `json:"reply_to,omitempty"`
}

// HasBody reports whether the message carries any content or media
func (m *Message) HasBody() bool {
	return m.Content != "" || !m.Media.IsZero()
}

// DeleteScope selects how far a message deletion reaches
type DeleteScope string

const (
	DeleteForSelf DeleteScope = "self"
	DeleteForBoth DeleteScope = "both"
)

// Valid reports whether the scope is a known value
func (s DeleteScope) Valid() bool {
	return s == DeleteForSelf || s == DeleteForBoth
}

// MaxContentLength caps message text in runes. The validate tag below
// must agree with it.
const MaxContentLength = 5000

// SendMessageRequest is the payload for sending a message, shared by the
// socket intent and the REST fallback
type SendMessageRequest struct {
	ChatID    int64  `json:"chat_id" validate:"required,gt=0"`
	Content   string `json:"content" validate:"max=5000"`
	Media     *Media `json:"media,omitempty"`
	ReplyToID *int64 `json:"reply_to_id,omitempty"`
}

// CreateChatRequest starts (or reopens) a chat with another user
type CreateChatRequest struct {
	ParticipantID int64 `json:"participant_id" validate:"required,gt=0"`
}

// DeleteMessageRequest selects the deletion scope for a message
type DeleteMessageRequest struct {
	DeleteFor DeleteScope `json:"delete_for" validate:"required,oneof=self both"`
}
