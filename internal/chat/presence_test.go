package chat_test

import (
	"context"
	"testing"

	"github.com/anyjobhub/qalbii/internal/chat"
)

func TestMemoryPresence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p := chat.NewMemoryPresence()

	if p.IsOnline(ctx, 1) {
		t.Error("fresh registry reports a user online")
	}

	if err := p.SetOnline(ctx, 1); err != nil {
		t.Fatalf("SetOnline: %v", err)
	}
	if !p.IsOnline(ctx, 1) {
		t.Error("user not online after SetOnline")
	}
	if p.IsOnline(ctx, 2) {
		t.Error("unrelated user reported online")
	}

	// Re-announcing is an idempotent refresh
	if err := p.SetOnline(ctx, 1); err != nil {
		t.Fatalf("second SetOnline: %v", err)
	}
	if !p.IsOnline(ctx, 1) {
		t.Error("refresh took the user offline")
	}

	if err := p.SetOffline(ctx, 1); err != nil {
		t.Fatalf("SetOffline: %v", err)
	}
	if p.IsOnline(ctx, 1) {
		t.Error("user still online after SetOffline")
	}

	// Going offline twice is harmless
	if err := p.SetOffline(ctx, 1); err != nil {
		t.Fatalf("second SetOffline: %v", err)
	}
}
