// internal/chat/service.go

package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode/utf8"
)

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrNotParticipant  = errors.New("not a participant in this chat")
	ErrNotSender       = errors.New("only the sender can delete this message")
	ErrEmptyMessage    = errors.New("message must have content or media")
	ErrMessageTooLong  = errors.New("message content too long")
	ErrInvalidMedia    = errors.New("invalid media attachment")
	ErrInvalidStatus   = errors.New("invalid message status")
	ErrInvalidScope    = errors.New("invalid delete scope")
	ErrSelfChat        = errors.New("cannot start a chat with yourself")
)

// Broadcaster pushes events out to connected clients. Implemented by the
// Hub; injected as an interface so the pipeline is testable without sockets.
type Broadcaster interface {
	// ToRoom sends an event to every connection joined to the chat room
	ToRoom(chatID int64, event Event)
	// ToRoomExcept sends to the room, skipping one user's connection
	ToRoomExcept(chatID, exceptUserID int64, event Event)
	// ToUser sends directly to a user's connection; reports delivery
	ToUser(userID int64, event Event) bool
	// ToAllExcept sends to every connection except one user's
	ToAllExcept(userID int64, event Event)
}

type Service interface {
	// Chats
	GetOrCreateChat(ctx context.Context, userID, participantID int64) (*Chat, error)
	GetChat(ctx context.Context, chatID, userID int64) (*Chat, error)
	ListChats(ctx context.Context, userID int64) ([]*Chat, error)
	DeleteChat(ctx context.Context, chatID, userID int64) error

	// Messages
	SendMessage(ctx context.Context, senderID int64, req *SendMessageRequest) (*Message, error)
	ListMessages(ctx context.Context, chatID, viewerID int64, page, limit int) ([]*Message, int, error)
	UpdateMessageStatus(ctx context.Context, messageID, chatID int64, status MessageStatus) error
	MarkChatRead(ctx context.Context, chatID, readerID int64) error
	DeleteMessage(ctx context.Context, messageID, requesterID int64, scope DeleteScope) error

	// Presence persistence for the connection lifecycle
	UpdateOnlineStatus(ctx context.Context, userID int64, isOnline bool) time.Time

	// Hub is attached after construction to break the cycle between the
	// pipeline and the socket layer
	SetHub(hub Broadcaster)
}

type chatService struct {
	repo     Repository
	presence Presence
	notifier Notifier
	hub      Broadcaster
}

func NewService(repo Repository, presence Presence, notifier Notifier) Service {
	return &chatService{
		repo:     repo,
		presence: presence,
		notifier: notifier,
	}
}

// SetHub sets the broadcaster after initialization to avoid a circular
// dependency between service and hub construction
func (s *chatService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// SendMessage runs the delivery pipeline. Persistence happens before any
// broadcast: a client must never observe a message it cannot later fetch.
// Once the message is durable, enrichment, chat bookkeeping, broadcast and
// the offline-notification branch are best-effort.
func (s *chatService) SendMessage(ctx context.Context, senderID int64, req *SendMessageRequest) (*Message, error) {
	if req.Content == "" && (req.Media == nil || req.Media.IsZero()) {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(req.Content) > MaxContentLength {
		return nil, ErrMessageTooLong
	}
	if req.Media != nil && !req.Media.Valid() {
		return nil, ErrInvalidMedia
	}

	chat, err := s.repo.FindChatByID(ctx, req.ChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	if !chat.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	message := &Message{
		ChatID:   req.ChatID,
		SenderID: senderID,
		Content:  req.Content,
		Status:   StatusSent,
	}
	if req.Media != nil {
		message.Media = *req.Media
	}

	// A reply reference that does not resolve to a message in the same
	// chat is dropped rather than failing the send
	if req.ReplyToID != nil {
		replied, err := s.repo.FindMessageByID(ctx, *req.ReplyToID)
		if err != nil {
			log.Printf("reply lookup failed for message %d: %v", *req.ReplyToID, err)
		} else if replied != nil && replied.ChatID == req.ChatID {
			message.ReplyToID = req.ReplyToID
			message.ReplyTo = replied
		}
	}

	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}
	messagesSent.Inc()

	// Everything below is post-persistence and must not fail the send

	sender, err := s.repo.GetUserInfo(ctx, senderID)
	if err != nil {
		log.Printf("sender enrichment failed for user %d: %v", senderID, err)
	} else {
		message.Sender = sender
	}

	if err := s.repo.SetLastMessage(ctx, chat.ID, message.ID); err != nil {
		log.Printf("failed to update last message for chat %d: %v", chat.ID, err)
	}

	recipient := chat.OtherParticipant(senderID)

	if chat.HiddenFor(recipient) {
		s.restoreChatFor(ctx, chat.ID, recipient)
	}

	if s.hub != nil {
		s.hub.ToRoom(chat.ID, NewEvent(EventMessageReceive, message))
	}

	if !s.presence.IsOnline(ctx, recipient) {
		s.createMessageNotification(ctx, message, recipient)
	}

	return message, nil
}

// restoreChatFor clears the recipient's deletion marker and pushes the
// refreshed chat projection directly to them if they are connected
func (s *chatService) restoreChatFor(ctx context.Context, chatID, userID int64) {
	removed, err := s.repo.RemoveChatDeletion(ctx, chatID, userID)
	if err != nil {
		log.Printf("failed to restore chat %d for user %d: %v", chatID, userID, err)
		return
	}
	if !removed {
		return
	}
	chatsRestored.Inc()

	if s.hub == nil {
		return
	}

	refreshed, err := s.repo.FindChatByID(ctx, chatID)
	if err != nil {
		log.Printf("failed to reload restored chat %d: %v", chatID, err)
		return
	}

	s.hub.ToUser(userID, NewEvent(EventChatRestored, ChatRestoredPayload{
		ChatID: chatID,
		Chat:   refreshed,
	}))
}

func (s *chatService) createMessageNotification(ctx context.Context, message *Message, recipient int64) {
	if s.notifier == nil {
		return
	}

	senderName := "Someone"
	if message.Sender != nil && message.Sender.FullName != "" {
		senderName = message.Sender.FullName
	}

	if err := s.notifier.NotifyNewMessage(ctx, recipient, message.SenderID, message.ChatID, senderName); err != nil {
		log.Printf("failed to create notification for user %d: %v", recipient, err)
		return
	}
	notificationsCreated.Inc()
}

// UpdateMessageStatus persists a delivered/read transition and broadcasts
// it to the chat room. Updates are applied last-write-wins; backward
// transitions are not rejected because clients push statuses idempotently.
func (s *chatService) UpdateMessageStatus(ctx context.Context, messageID, chatID int64, status MessageStatus) error {
	if status != StatusDelivered && status != StatusRead {
		return ErrInvalidStatus
	}

	if err := s.repo.SetMessageStatus(ctx, messageID, status); err != nil {
		return fmt.Errorf("failed to update message status: %w", err)
	}

	if s.hub != nil {
		s.hub.ToRoom(chatID, NewEvent(EventMessageStatus, MessageStatusPayload{
			MessageID: messageID,
			Status:    status,
		}))
	}

	return nil
}

// MarkChatRead marks every message not sent by the reader as read and
// tells the other room members; the reader already knows
func (s *chatService) MarkChatRead(ctx context.Context, chatID, readerID int64) error {
	chat, err := s.repo.FindChatByID(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to load chat: %w", err)
	}
	if chat == nil {
		return ErrChatNotFound
	}
	if !chat.HasParticipant(readerID) {
		return ErrNotParticipant
	}

	if err := s.repo.MarkChatMessagesRead(ctx, chatID, readerID); err != nil {
		return fmt.Errorf("failed to mark chat read: %w", err)
	}

	if s.hub != nil {
		s.hub.ToRoomExcept(chatID, readerID, NewEvent(EventChatRead, ChatReadPayload{
			ChatID: chatID,
			UserID: readerID,
		}))
	}

	return nil
}

// DeleteMessage applies a deletion scope. Both scopes are restricted to
// the original sender. scope=self only hides the message for the
// requester and is not broadcast; scope=both is terminal and announced to
// the whole room so all views update together.
func (s *chatService) DeleteMessage(ctx context.Context, messageID, requesterID int64, scope DeleteScope) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}

	message, err := s.repo.FindMessageByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("failed to load message: %w", err)
	}
	if message == nil {
		return ErrMessageNotFound
	}
	if message.SenderID != requesterID {
		return ErrNotSender
	}

	if scope == DeleteForSelf {
		return s.repo.AddMessageDeletion(ctx, messageID, requesterID)
	}

	if err := s.repo.SetDeletedForEveryone(ctx, messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	if s.hub != nil {
		s.hub.ToRoom(message.ChatID, NewEvent(EventMessageDeleted, MessageDeletedPayload{
			MessageID: messageID,
			DeleteFor: DeleteForBoth,
		}))
	}

	return nil
}

// GetOrCreateChat returns the chat for a participant pair, creating it on
// first contact. Reopening a chat the caller had deleted clears their own
// deletion marker; no notification is needed since it is the same user
// acting.
func (s *chatService) GetOrCreateChat(ctx context.Context, userID, participantID int64) (*Chat, error) {
	if userID == participantID {
		return nil, ErrSelfChat
	}

	participant, err := s.repo.GetUserInfo(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participant: %w", err)
	}
	if participant == nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.repo.FindChatByParticipants(ctx, userID, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up chat: %w", err)
	}

	if existing != nil {
		if existing.HiddenFor(userID) {
			if _, err := s.repo.RemoveChatDeletion(ctx, existing.ID, userID); err != nil {
				return nil, fmt.Errorf("failed to reopen chat: %w", err)
			}
			return s.repo.FindChatByID(ctx, existing.ID)
		}
		return existing, nil
	}

	return s.repo.CreateChat(ctx, userID, participantID)
}

func (s *chatService) GetChat(ctx context.Context, chatID, userID int64) (*Chat, error) {
	chat, err := s.repo.FindChatByID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}
	if chat == nil || !chat.HasParticipant(userID) {
		return nil, ErrChatNotFound
	}
	return chat, nil
}

func (s *chatService) ListChats(ctx context.Context, userID int64) ([]*Chat, error) {
	return s.repo.ListChatsForUser(ctx, userID)
}

// DeleteChat hides the chat from the caller's list and hides all current
// history for them. A later restoration brings the chat back but not the
// cleared history; only messages sent after restoration are visible.
func (s *chatService) DeleteChat(ctx context.Context, chatID, userID int64) error {
	chat, err := s.repo.FindChatByID(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to load chat: %w", err)
	}
	if chat == nil || !chat.HasParticipant(userID) {
		return ErrChatNotFound
	}

	if chat.HiddenFor(userID) {
		return nil
	}

	if err := s.repo.AddChatDeletion(ctx, chatID, userID, time.Now()); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	if err := s.repo.AddChatMessagesDeletion(ctx, chatID, userID); err != nil {
		return fmt.Errorf("failed to hide chat history: %w", err)
	}

	return nil
}

func (s *chatService) ListMessages(ctx context.Context, chatID, viewerID int64, page, limit int) ([]*Message, int, error) {
	chat, err := s.repo.FindChatByID(ctx, chatID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load chat: %w", err)
	}
	if chat == nil || !chat.HasParticipant(viewerID) {
		return nil, 0, ErrChatNotFound
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	return s.repo.ListMessages(ctx, chatID, viewerID, limit, (page-1)*limit)
}

// UpdateOnlineStatus persists the user's durable presence fields. Failures
// are logged and swallowed: the in-memory registry is the source of truth
// while the process lives, and the presence broadcast should proceed even
// when the durable write fails.
func (s *chatService) UpdateOnlineStatus(ctx context.Context, userID int64, isOnline bool) time.Time {
	lastSeen := time.Now()

	if err := s.repo.UpdateUserPresence(ctx, userID, isOnline, lastSeen); err != nil {
		log.Printf("failed to persist presence for user %d: %v", userID, err)
	}

	return lastSeen
}
