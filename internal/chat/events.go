// internal/chat/events.go
// Wire-level event envelope and payloads for the websocket layer

package chat

import (
	"encoding/json"
	"log"
	"time"
)

// Event is the envelope every websocket frame carries, in both directions
type Event struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Inbound event types (client -> server)
const (
	EventUserOnline       = "user:online"
	EventChatJoin         = "chat:join"
	EventChatLeave        = "chat:leave"
	EventMessageSend      = "message:send"
	EventTypingStart      = "typing:start"
	EventTypingStop       = "typing:stop"
	EventMessageDelivered = "message:delivered"
	EventMessageRead      = "message:read"
	EventChatRead         = "chat:read"
	EventMessageDelete    = "message:delete"
)

// Outbound event types (server -> client)
const (
	EventUserStatus     = "user:status"
	EventMessageReceive = "message:receive"
	EventMessageStatus  = "message:status"
	EventMessageDeleted = "message:deleted"
	EventChatRestored   = "chat:restored"
	EventError          = "error"
)

// NewEvent wraps a payload into an envelope
func NewEvent(eventType string, payload interface{}) Event {
	return Event{
		Type:      eventType,
		Data:      mustMarshal(payload),
		Timestamp: time.Now(),
	}
}

// ChatRefPayload addresses a chat room (chat:join, chat:leave, chat:read)
type ChatRefPayload struct {
	ChatID int64 `json:"chat_id"`
}

// TypingPayload is relayed to the room on typing:start / typing:stop
type TypingPayload struct {
	ChatID   int64  `json:"chat_id"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
}

// MessageRefPayload addresses a message inside a chat (message:delivered, message:read)
type MessageRefPayload struct {
	MessageID int64 `json:"message_id"`
	ChatID    int64 `json:"chat_id"`
}

// DeleteMessagePayload is the inbound message:delete intent
type DeleteMessagePayload struct {
	MessageID int64       `json:"message_id"`
	ChatID    int64       `json:"chat_id"`
	DeleteFor DeleteScope `json:"delete_for"`
}

// UserStatusPayload announces presence changes to other connections
type UserStatusPayload struct {
	UserID   int64     `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

// MessageStatusPayload broadcasts a status transition to the chat room
type MessageStatusPayload struct {
	MessageID int64         `json:"message_id"`
	Status    MessageStatus `json:"status"`
}

// ChatReadPayload broadcasts a bulk read to the other room members
type ChatReadPayload struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
}

// MessageDeletedPayload announces a deletion to affected viewers
type MessageDeletedPayload struct {
	MessageID int64       `json:"message_id"`
	DeleteFor DeleteScope `json:"delete_for"`
}

// ChatRestoredPayload is pushed point-to-point to a participant whose
// hidden chat came back through new activity
type ChatRestoredPayload struct {
	ChatID int64 `json:"chat_id"`
	Chat   *Chat `json:"chat"`
}

// ErrorPayload is sent to the offending connection only
type ErrorPayload struct {
	Message string `json:"message"`
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling event payload: %v", err)
		return json.RawMessage(`{}`)
	}
	return data
}
