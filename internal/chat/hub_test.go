package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// fakeStatus records durable presence writes driven by the hub.
type fakeStatus struct {
	mu      sync.Mutex
	updates []presenceWrite
}

type presenceWrite struct {
	userID   int64
	isOnline bool
}

func (s *fakeStatus) UpdateOnlineStatus(ctx context.Context, userID int64, isOnline bool) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, presenceWrite{userID, isOnline})
	return time.Now()
}

func (s *fakeStatus) writes() []presenceWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]presenceWrite, len(s.updates))
	copy(out, s.updates)
	return out
}

func newTestHub() (*Hub, *fakeStatus) {
	status := &fakeStatus{}
	return NewHub(status, NewMemoryPresence()), status
}

// testClient builds a client without a websocket connection; closeConn
// tolerates the nil conn.
func testClient(h *Hub, userID int64) *Client {
	return NewClient(h, nil, userID, "", nil)
}

// recvEvent drains one queued frame from the client's send buffer.
func recvEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.send:
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("no frame queued")
		return Event{}
	}
}

func TestRegisterAnnouncesOnline(t *testing.T) {
	t.Parallel()
	h, status := newTestHub()

	c1 := testClient(h, 1)
	h.registerClient(c1)

	c2 := testClient(h, 2)
	h.registerClient(c2)

	if !h.IsUserOnline(1) || !h.IsUserOnline(2) {
		t.Fatal("registered users are not online")
	}
	if got := h.GetActiveConnections(); got != 2 {
		t.Errorf("active connections = %d, want 2", got)
	}

	// The first user hears about the second coming online
	event := recvEvent(t, c1)
	if event.Type != EventUserStatus {
		t.Fatalf("event type = %q, want %q", event.Type, EventUserStatus)
	}
	var payload UserStatusPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.UserID != 2 || !payload.IsOnline {
		t.Errorf("payload = %+v", payload)
	}

	// The affected user is never echoed their own status
	select {
	case <-c2.send:
		t.Error("user received their own status broadcast")
	default:
	}

	writes := status.writes()
	if len(writes) != 2 || writes[0] != (presenceWrite{1, true}) || writes[1] != (presenceWrite{2, true}) {
		t.Errorf("status writes = %+v", writes)
	}
}

func TestUnregisterAnnouncesOffline(t *testing.T) {
	t.Parallel()
	h, status := newTestHub()

	c1 := testClient(h, 1)
	c2 := testClient(h, 2)
	h.registerClient(c1)
	h.registerClient(c2)
	drain(c1)

	h.unregisterClient(c2)

	if h.IsUserOnline(2) {
		t.Error("unregistered user still online")
	}
	if !h.presence.IsOnline(context.Background(), 1) {
		t.Error("remaining user lost presence")
	}

	event := recvEvent(t, c1)
	var payload UserStatusPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.UserID != 2 || payload.IsOnline {
		t.Errorf("payload = %+v", payload)
	}

	writes := status.writes()
	last := writes[len(writes)-1]
	if last != (presenceWrite{2, false}) {
		t.Errorf("last status write = %+v", last)
	}
}

func TestReconnectReplacesHandle(t *testing.T) {
	t.Parallel()
	h, status := newTestHub()

	old := testClient(h, 1)
	h.registerClient(old)

	replacement := testClient(h, 1)
	h.registerClient(replacement)

	if got := h.GetActiveConnections(); got != 1 {
		t.Fatalf("active connections = %d, want 1", got)
	}

	// Tearing down the stale handle must not take the user offline
	h.unregisterClient(old)

	if !h.IsUserOnline(1) {
		t.Error("fast reconnect took the user offline")
	}
	if !h.presence.IsOnline(context.Background(), 1) {
		t.Error("presence registry lost the user")
	}
	for _, w := range status.writes() {
		if !w.isOnline {
			t.Errorf("offline write recorded for a stale handle: %+v", w)
		}
	}
}

func TestRoomDelivery(t *testing.T) {
	t.Parallel()
	h, _ := newTestHub()

	c1 := testClient(h, 1)
	c2 := testClient(h, 2)
	c3 := testClient(h, 3)
	h.registerClient(c1)
	h.registerClient(c2)
	h.registerClient(c3)
	drain(c1, c2, c3)

	const chatID = int64(10)
	h.JoinRoom(c1, chatID)
	h.JoinRoom(c2, chatID)

	h.ToRoom(chatID, NewEvent(EventMessageReceive, nil))

	if got := recvEvent(t, c1); got.Type != EventMessageReceive {
		t.Errorf("c1 event = %q", got.Type)
	}
	if got := recvEvent(t, c2); got.Type != EventMessageReceive {
		t.Errorf("c2 event = %q", got.Type)
	}
	select {
	case <-c3.send:
		t.Error("non-member received a room broadcast")
	default:
	}

	h.ToRoomExcept(chatID, 1, NewEvent(EventTypingStart, nil))
	if got := recvEvent(t, c2); got.Type != EventTypingStart {
		t.Errorf("c2 event = %q", got.Type)
	}
	select {
	case <-c1.send:
		t.Error("excepted user received the broadcast")
	default:
	}

	h.LeaveRoom(c2, chatID)
	h.ToRoom(chatID, NewEvent(EventMessageReceive, nil))
	if got := recvEvent(t, c1); got.Type != EventMessageReceive {
		t.Errorf("c1 event = %q", got.Type)
	}
	select {
	case <-c2.send:
		t.Error("left member received a room broadcast")
	default:
	}
}

func TestUnregisterDropsRoomMembership(t *testing.T) {
	t.Parallel()
	h, _ := newTestHub()

	c1 := testClient(h, 1)
	h.registerClient(c1)
	h.JoinRoom(c1, 10)

	h.unregisterClient(c1)

	if members := h.rooms[10]; members != nil {
		t.Error("empty room was not reaped")
	}
}

func TestToUser(t *testing.T) {
	t.Parallel()
	h, _ := newTestHub()

	c1 := testClient(h, 1)
	h.registerClient(c1)

	if !h.ToUser(1, NewEvent(EventChatRestored, nil)) {
		t.Error("delivery to a connected user reported false")
	}
	if h.ToUser(99, NewEvent(EventChatRestored, nil)) {
		t.Error("delivery to an unknown user reported true")
	}
}

func TestRunAndShutdown(t *testing.T) {
	t.Parallel()
	h, _ := newTestHub()
	go h.Run()

	c1 := testClient(h, 1)
	h.register <- c1

	deadline := time.After(time.Second)
	for !h.IsUserOnline(1) {
		select {
		case <-deadline:
			t.Fatal("registration never applied")
		case <-time.After(5 * time.Millisecond):
		}
	}

	h.Shutdown()

	if h.GetActiveConnections() != 0 {
		t.Error("shutdown left handles registered")
	}
	select {
	case <-c1.done:
	default:
		t.Error("client was not signalled to stop on shutdown")
	}
	if c1.enqueue([]byte("{}")) && len(c1.send) != 0 {
		t.Error("closed client accepted a frame")
	}
}

// A broadcast racing the teardown of a room member must never panic the
// hub; late frames for the departing connection are dropped instead.
func TestBroadcastDuringUnregister(t *testing.T) {
	t.Parallel()
	h, _ := newTestHub()

	const chatID = int64(10)

	for i := 0; i < 50; i++ {
		stayer := testClient(h, 1)
		leaver := testClient(h, 2)
		h.registerClient(stayer)
		h.registerClient(leaver)
		drain(stayer, leaver)
		h.JoinRoom(stayer, chatID)
		h.JoinRoom(leaver, chatID)

		stop := make(chan struct{})
		go func() {
			for {
				select {
				case <-stop:
					return
				default:
					drain(stayer, leaver)
				}
			}
		}()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.ToRoom(chatID, NewEvent(EventMessageReceive, nil))
			}
		}()
		go func() {
			defer wg.Done()
			h.unregisterClient(leaver)
		}()
		wg.Wait()
		close(stop)

		h.unregisterClient(stayer)
	}

	h.Shutdown()
}

func drain(clients ...*Client) {
	for _, c := range clients {
		for len(c.send) > 0 {
			<-c.send
		}
	}
}
