// internal/chat/client.go

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024 // 64KB

	// Outbound event buffer per connection
	sendBufferSize = 256
)

// Client is one websocket connection bound to an authenticated user.
// The send channel is never closed; close signals shutdown through done
// so concurrent broadcasters can never hit a closed channel.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	userID   int64
	username string
	service  Service

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64, username string, service Service) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		userID:   userID,
		username: username,
		service:  service,
	}
}

func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump consumes inbound frames. Events are handled synchronously so a
// single connection's intents are applied in the order they arrive.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for user %d: %v", c.userID, err)
			}
			break
		}

		c.handleEvent(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush queued events into the same frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleEvent dispatches one inbound intent. Per-operation errors go back
// to this connection only and never affect other clients.
func (c *Client) handleEvent(data []byte) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		c.sendError("Invalid event payload")
		return
	}

	eventsReceived.WithLabelValues(event.Type).Inc()
	ctx := context.Background()

	switch event.Type {
	case EventUserOnline:
		// Identity comes from the token at upgrade time; the announce is
		// accepted as an idempotent presence refresh
		if err := c.hub.presence.SetOnline(ctx, c.userID); err != nil {
			log.Printf("presence refresh error for user %d: %v", c.userID, err)
		}

	case EventChatJoin:
		c.handleJoin(ctx, event.Data)

	case EventChatLeave:
		var payload ChatRefPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.sendError("Invalid event payload")
			return
		}
		c.hub.LeaveRoom(c, payload.ChatID)

	case EventMessageSend:
		c.handleSendMessage(ctx, event.Data)

	case EventTypingStart, EventTypingStop:
		c.handleTyping(event.Type, event.Data)

	case EventMessageDelivered:
		c.handleStatusUpdate(ctx, event.Data, StatusDelivered)

	case EventMessageRead:
		c.handleStatusUpdate(ctx, event.Data, StatusRead)

	case EventChatRead:
		c.handleChatRead(ctx, event.Data)

	case EventMessageDelete:
		c.handleDeleteMessage(ctx, event.Data)

	default:
		log.Printf("Unknown event type from user %d: %s", c.userID, event.Type)
	}
}

func (c *Client) handleJoin(ctx context.Context, data json.RawMessage) {
	var payload ChatRefPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.sendError("Invalid event payload")
		return
	}

	// Only participants may subscribe to a chat's room
	if _, err := c.service.GetChat(ctx, payload.ChatID, c.userID); err != nil {
		c.sendError(userFacingError(err, "Failed to join chat"))
		return
	}

	c.hub.JoinRoom(c, payload.ChatID)
}

func (c *Client) handleSendMessage(ctx context.Context, data json.RawMessage) {
	var req SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("Invalid event payload")
		return
	}

	if _, err := c.service.SendMessage(ctx, c.userID, &req); err != nil {
		c.sendError(userFacingError(err, "Failed to send message"))
	}
}

// handleTyping relays typing signals to the room except the sender.
// Nothing is persisted; stopping is the sending client's responsibility.
func (c *Client) handleTyping(eventType string, data json.RawMessage) {
	var payload TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.sendError("Invalid event payload")
		return
	}

	payload.UserID = c.userID
	if payload.Username == "" {
		payload.Username = c.username
	}

	c.hub.ToRoomExcept(payload.ChatID, c.userID, NewEvent(eventType, payload))
}

func (c *Client) handleStatusUpdate(ctx context.Context, data json.RawMessage, status MessageStatus) {
	var payload MessageRefPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.sendError("Invalid event payload")
		return
	}

	if err := c.service.UpdateMessageStatus(ctx, payload.MessageID, payload.ChatID, status); err != nil {
		c.sendError(userFacingError(err, "Failed to update message status"))
	}
}

func (c *Client) handleChatRead(ctx context.Context, data json.RawMessage) {
	var payload ChatRefPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.sendError("Invalid event payload")
		return
	}

	if err := c.service.MarkChatRead(ctx, payload.ChatID, c.userID); err != nil {
		c.sendError(userFacingError(err, "Failed to mark chat read"))
	}
}

func (c *Client) handleDeleteMessage(ctx context.Context, data json.RawMessage) {
	var payload DeleteMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.sendError("Invalid event payload")
		return
	}

	if err := c.service.DeleteMessage(ctx, payload.MessageID, c.userID, payload.DeleteFor); err != nil {
		c.sendError(userFacingError(err, "Failed to delete message"))
		return
	}

	// A self deletion is not broadcast; echo to the requester so their
	// other views update
	if payload.DeleteFor == DeleteForSelf {
		c.sendEvent(NewEvent(EventMessageDeleted, MessageDeletedPayload{
			MessageID: payload.MessageID,
			DeleteFor: DeleteForSelf,
		}))
	}
}

// sendEvent queues an event for this connection, dropping it if the
// connection is too far behind
func (c *Client) sendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshalling event %s: %v", event.Type, err)
		return
	}

	c.enqueue(data)
}

// enqueue offers a frame to the write pump without blocking. It reports
// false only when a live connection's buffer is full; a closed client
// swallows the frame so broadcasters racing an unregister stay safe.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return true
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) sendError(message string) {
	c.sendEvent(NewEvent(EventError, ErrorPayload{Message: message}))
}

// closeConn is safe on clients that never completed an upgrade
func (c *Client) closeConn() {
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
	})
}

// userFacingError keeps known domain errors readable and hides everything
// else behind a generic message
func userFacingError(err error, fallback string) string {
	for _, known := range []error{
		ErrChatNotFound, ErrMessageNotFound, ErrUserNotFound,
		ErrNotParticipant, ErrNotSender, ErrEmptyMessage, ErrMessageTooLong,
		ErrInvalidMedia, ErrInvalidStatus, ErrInvalidScope, ErrSelfChat,
	} {
		if errors.Is(err, known) {
			return err.Error()
		}
	}
	return fallback
}
