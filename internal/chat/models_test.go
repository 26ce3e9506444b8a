package chat_test

import (
	"testing"

	"github.com/anyjobhub/qalbii/internal/chat"
)

func TestNormalizePair(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		a, b         int64
		wantA, wantB int64
	}{
		{"already ordered", 1, 2, 1, 2},
		{"reversed", 9, 3, 3, 9},
		{"equal", 5, 5, 5, 5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gotA, gotB := chat.NormalizePair(tt.a, tt.b)
			if gotA != tt.wantA || gotB != tt.wantB {
				t.Errorf("NormalizePair(%d, %d) = (%d, %d), want (%d, %d)",
					tt.a, tt.b, gotA, gotB, tt.wantA, tt.wantB)
			}
		})
	}
}

func TestChatParticipants(t *testing.T) {
	t.Parallel()

	c := &chat.Chat{UserOneID: 1, UserTwoID: 2}

	if !c.HasParticipant(1) || !c.HasParticipant(2) {
		t.Error("participants not recognized")
	}
	if c.HasParticipant(3) {
		t.Error("outsider recognized as participant")
	}
	if got := c.OtherParticipant(1); got != 2 {
		t.Errorf("OtherParticipant(1) = %d, want 2", got)
	}
	if got := c.OtherParticipant(2); got != 1 {
		t.Errorf("OtherParticipant(2) = %d, want 1", got)
	}
}

func TestChatHiddenFor(t *testing.T) {
	t.Parallel()

	c := &chat.Chat{
		UserOneID: 1,
		UserTwoID: 2,
		DeletedBy: []chat.ChatDeletion{{UserID: 2}},
	}

	if c.HiddenFor(1) {
		t.Error("chat hidden for a user who never deleted it")
	}
	if !c.HiddenFor(2) {
		t.Error("chat not hidden for the deleting user")
	}
}

func TestMediaValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		media chat.Media
		want  bool
	}{
		{"zero value", chat.Media{}, true},
		{"image", chat.Media{Type: chat.MediaImage, URL: "https://cdn.example/a.jpg"}, true},
		{"video", chat.Media{Type: chat.MediaVideo, URL: "https://cdn.example/a.mp4"}, true},
		{"audio", chat.Media{Type: chat.MediaAudio, URL: "https://cdn.example/a.ogg"}, true},
		{"missing url", chat.Media{Type: chat.MediaImage}, false},
		{"unknown type", chat.Media{Type: "gif", URL: "https://cdn.example/a.gif"}, false},
		{"url without type", chat.Media{URL: "https://cdn.example/a.jpg"}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.media.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageHasBody(t *testing.T) {
	t.Parallel()

	if (&chat.Message{}).HasBody() {
		t.Error("empty message reported a body")
	}
	if !(&chat.Message{Content: "hi"}).HasBody() {
		t.Error("text message reported no body")
	}
	withMedia := &chat.Message{Media: chat.Media{Type: chat.MediaImage, URL: "x"}}
	if !withMedia.HasBody() {
		t.Error("media message reported no body")
	}
}

func TestMessageStatusValid(t *testing.T) {
	t.Parallel()

	for _, s := range []chat.MessageStatus{chat.StatusSent, chat.StatusDelivered, chat.StatusRead} {
		if !s.Valid() {
			t.Errorf("%q reported invalid", s)
		}
	}
	for _, s := range []chat.MessageStatus{"", "seen", "SENT"} {
		if s.Valid() {
			t.Errorf("%q reported valid", s)
		}
	}
}

func TestDeleteScopeValid(t *testing.T) {
	t.Parallel()

	if !chat.DeleteForSelf.Valid() || !chat.DeleteForBoth.Valid() {
		t.Error("known scopes reported invalid")
	}
	for _, s := range []chat.DeleteScope{"", "everyone", "all"} {
		if s.Valid() {
			t.Errorf("%q reported valid", s)
		}
	}
}
