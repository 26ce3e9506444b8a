// internal/chat/hub.go

package chat

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// presenceRefreshInterval keeps TTL-based presence backends alive while a
// connection is open. Must stay well under the configured presence TTL.
const presenceRefreshInterval = 30 * time.Second

// StatusUpdater persists the durable side of a presence change
type StatusUpdater interface {
	UpdateOnlineStatus(ctx context.Context, userID int64, isOnline bool) time.Time
}

// Hub owns every websocket connection: one handle per user (a second
// connection replaces the first) plus the chat rooms connections have
// joined. It is the only place connection handles live; the Presence
// registry tracks the online set.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]*Client
	rooms   map[int64]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	presence Presence
	status   StatusUpdater

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHub(status StatusUpdater, presence Presence) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:    make(map[int64]*Client),
		rooms:      make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		presence:   presence,
		status:     status,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run processes connection lifecycle events until shutdown. Register and
// unregister are handled on a single loop so the presence broadcasts for
// one user's disconnect/reconnect go out in arrival order.
func (h *Hub) Run() {
	h.wg.Add(1)
	defer h.wg.Done()

	refresh := time.NewTicker(presenceRefreshInterval)
	defer refresh.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-refresh.C:
			h.refreshPresence()

		case <-h.ctx.Done():
			h.cleanup()
			return
		}
	}
}

// registerClient attaches a connection to its user identity. Side effects
// in order: replace any previous handle, record presence, persist the
// durable online flag, announce the status change to everyone else.
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if old, exists := h.clients[client.userID]; exists {
		h.dropLocked(old)
		old.closeConn()
	}
	h.clients[client.userID] = client
	total := len(h.clients)
	h.mu.Unlock()

	activeConnections.Set(float64(total))

	if err := h.presence.SetOnline(h.ctx, client.userID); err != nil {
		log.Printf("presence registry error for user %d: %v", client.userID, err)
	}

	lastSeen := h.status.UpdateOnlineStatus(h.ctx, client.userID, true)

	h.ToAllExcept(client.userID, NewEvent(EventUserStatus, UserStatusPayload{
		UserID:   client.userID,
		IsOnline: true,
		LastSeen: lastSeen,
	}))

	log.Printf("User %d connected. Total clients: %d", client.userID, total)
}

// unregisterClient detaches a connection. If the user already has a newer
// connection registered, only this handle is discarded and the user stays
// online.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	current, exists := h.clients[client.userID]
	if exists && current == client {
		delete(h.clients, client.userID)
	} else {
		exists = false
	}
	h.dropLocked(client)
	total := len(h.clients)
	h.mu.Unlock()

	client.close()

	if !exists {
		return
	}

	activeConnections.Set(float64(total))

	if err := h.presence.SetOffline(h.ctx, client.userID); err != nil {
		log.Printf("presence registry error for user %d: %v", client.userID, err)
	}

	lastSeen := h.status.UpdateOnlineStatus(h.ctx, client.userID, false)

	h.ToAllExcept(client.userID, NewEvent(EventUserStatus, UserStatusPayload{
		UserID:   client.userID,
		IsOnline: false,
		LastSeen: lastSeen,
	}))

	log.Printf("User %d disconnected. Total clients: %d", client.userID, total)
}

// dropLocked removes a client from every room. Caller holds h.mu.
func (h *Hub) dropLocked(client *Client) {
	for chatID, members := range h.rooms {
		if members[client] {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, chatID)
			}
		}
	}
}

// JoinRoom subscribes a connection to a chat's broadcasts
func (h *Hub) JoinRoom(client *Client, chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[chatID] == nil {
		h.rooms[chatID] = make(map[*Client]bool)
	}
	h.rooms[chatID][client] = true
}

// LeaveRoom unsubscribes a connection from a chat's broadcasts
func (h *Hub) LeaveRoom(client *Client, chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[chatID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// ToRoom sends an event to every connection joined to the chat room
func (h *Hub) ToRoom(chatID int64, event Event) {
	h.mu.RLock()
	targets := h.roomMembersLocked(chatID, 0)
	h.mu.RUnlock()

	h.deliver(targets, event)
}

// ToRoomExcept sends to the room, skipping the given user's connection
func (h *Hub) ToRoomExcept(chatID, exceptUserID int64, event Event) {
	h.mu.RLock()
	targets := h.roomMembersLocked(chatID, exceptUserID)
	h.mu.RUnlock()

	h.deliver(targets, event)
}

// roomMembersLocked snapshots room members. Caller holds h.mu.
func (h *Hub) roomMembersLocked(chatID, exceptUserID int64) []*Client {
	members := h.rooms[chatID]
	targets := make([]*Client, 0, len(members))
	for client := range members {
		if exceptUserID != 0 && client.userID == exceptUserID {
			continue
		}
		targets = append(targets, client)
	}
	return targets
}

// ToUser sends directly to one user's connection, outside any room.
// Reports whether the user had a local handle.
func (h *Hub) ToUser(userID int64, event Event) bool {
	h.mu.RLock()
	client, exists := h.clients[userID]
	h.mu.RUnlock()

	if !exists {
		return false
	}

	h.deliver([]*Client{client}, event)
	return true
}

// ToAllExcept sends to every connection except the given user's
func (h *Hub) ToAllExcept(exceptUserID int64, event Event) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for userID, client := range h.clients {
		if userID == exceptUserID {
			continue
		}
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	h.deliver(targets, event)
}

// deliver marshals once and fans out. A client whose send buffer is full
// is torn down rather than allowed to stall everyone else.
func (h *Hub) deliver(targets []*Client, event Event) {
	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshalling event %s: %v", event.Type, err)
		return
	}

	for _, client := range targets {
		if client.enqueue(data) {
			continue
		}
		h.wg.Add(1)
		go func(c *Client) {
			defer h.wg.Done()
			select {
			case h.unregister <- c:
			case <-h.ctx.Done():
			}
		}(client)
	}
}

// IsUserOnline reports whether a user has a handle on this hub
func (h *Hub) IsUserOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, exists := h.clients[userID]
	return exists
}

// GetActiveConnections returns the number of registered handles
func (h *Hub) GetActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// refreshPresence re-announces every local connection so TTL-based
// presence backends keep their entries alive
func (h *Hub) refreshPresence() {
	h.mu.RLock()
	userIDs := make([]int64, 0, len(h.clients))
	for userID := range h.clients {
		userIDs = append(userIDs, userID)
	}
	h.mu.RUnlock()

	for _, userID := range userIDs {
		if err := h.presence.SetOnline(h.ctx, userID); err != nil {
			log.Printf("presence refresh error for user %d: %v", userID, err)
		}
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	for _, client := range h.clients {
		client.closeConn()
		client.close()
	}
	h.clients = make(map[int64]*Client)
	h.rooms = make(map[int64]map[*Client]bool)
	h.mu.Unlock()

	activeConnections.Set(0)
}

// Shutdown stops the run loop and closes all connections
func (h *Hub) Shutdown() {
	h.cancel()
	h.wg.Wait()
}
