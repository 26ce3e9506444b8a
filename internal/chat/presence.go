// internal/chat/presence.go

package chat

import (
	"context"
	"sync"
)

// Presence tracks which users currently have an active connection. It is
// injectable so the in-process registry can be swapped for a shared-cache
// implementation without touching the delivery pipeline, and so tests can
// control it directly. Connection handles themselves stay in the Hub; the
// registry only answers the online question.
type Presence interface {
	SetOnline(ctx context.Context, userID int64) error
	SetOffline(ctx context.Context, userID int64) error
	IsOnline(ctx context.Context, userID int64) bool
}

// memoryPresence is the canonical single-process registry. All operations
// are single-key, so a plain RWMutex-guarded map is enough.
type memoryPresence struct {
	mu     sync.RWMutex
	online map[int64]struct{}
}

// NewMemoryPresence creates an in-process presence registry. It starts
// empty: every user is offline until their connection re-registers.
func NewMemoryPresence() Presence {
	return &memoryPresence{
		online: make(map[int64]struct{}),
	}
}

func (p *memoryPresence) SetOnline(ctx context.Context, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.online[userID] = struct{}{}
	return nil
}

func (p *memoryPresence) SetOffline(ctx context.Context, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.online, userID)
	return nil
}

func (p *memoryPresence) IsOnline(ctx context.Context, userID int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.online[userID]
	return ok
}
