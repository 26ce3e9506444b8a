// internal/chat/repository.go
// Store adapter contracts for Chat and Message documents. The store is
// expected to apply each call as a single atomic document/row update;
// the pipeline never needs multi-statement transactions.

package chat

import (
	"context"
	"time"
)

type Repository interface {
	// Chats
	CreateChat(ctx context.Context, userA, userB int64) (*Chat, error)
	FindChatByParticipants(ctx context.Context, userA, userB int64) (*Chat, error)
	FindChatByID(ctx context.Context, id int64) (*Chat, error)
	ListChatsForUser(ctx context.Context, userID int64) ([]*Chat, error)
	SetLastMessage(ctx context.Context, chatID, messageID int64) error
	AddChatDeletion(ctx context.Context, chatID, userID int64, deletedAt time.Time) error
	RemoveChatDeletion(ctx context.Context, chatID, userID int64) (bool, error)

	// Messages
	CreateMessage(ctx context.Context, message *Message) error
	FindMessageByID(ctx context.Context, id int64) (*Message, error)
	ListMessages(ctx context.Context, chatID, viewerID int64, limit, offset int) ([]*Message, int, error)
	SetMessageStatus(ctx context.Context, id int64, status MessageStatus) error
	MarkChatMessagesRead(ctx context.Context, chatID, excludeSenderID int64) error
	SetDeletedForEveryone(ctx context.Context, id int64) error
	AddMessageDeletion(ctx context.Context, messageID, userID int64) error
	AddChatMessagesDeletion(ctx context.Context, chatID, userID int64) error

	// Users
	GetUserInfo(ctx context.Context, userID int64) (*UserInfo, error)
	UpdateUserPresence(ctx context.Context, userID int64, isOnline bool, lastSeen time.Time) error
}

// Notifier persists a notification for a recipient who is not connected.
// Implemented by the notification service; the pipeline only knows this
// narrow surface.
type Notifier interface {
	NotifyNewMessage(ctx context.Context, recipientID, senderID, chatID int64, senderName string) error
}
