// internal/chat/handlers.go

package chat

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/anyjobhub/qalbii/internal/common/storage"
	"github.com/anyjobhub/qalbii/internal/common/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Configure CORS as needed
		return true
	},
}

type Handler struct {
	service  Service
	hub      *Hub
	uploader storage.Uploader
}

func NewHandler(service Service, hub *Hub, uploader storage.Uploader) *Handler {
	return &Handler{
		service:  service,
		hub:      hub,
		uploader: uploader,
	}
}

// HandleWebSocket upgrades an authenticated request into a socket client
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	username, _ := r.Context().Value("username").(string)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error for user %d: %v", userID, err)
		return
	}

	client := NewClient(h.hub, conn, userID, username, h.service)
	h.hub.register <- client
	client.Start()
}

// CreateChat finds or creates the direct chat with another user
func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var req CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	chat, err := h.service.GetOrCreateChat(r.Context(), userID, req.ParticipantID)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), statusFor(err))
		return
	}

	utils.SuccessResponse(w, chat, http.StatusCreated)
}

// ListChats returns the caller's visible chats, most recent first
func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	chats, err := h.service.ListChats(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), statusFor(err))
		return
	}

	utils.SuccessResponse(w, chats, http.StatusOK)
}

// GetChat returns a single chat the caller participates in
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	chatID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}

	chat, err := h.service.GetChat(r.Context(), chatID, userID)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), statusFor(err))
		return
	}

	utils.SuccessResponse(w, chat, http.StatusOK)
}

// DeleteChat hides the chat and its current history for the caller only
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	chatID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteChat(r.Context(), chatID, userID); err != nil {
		utils.ErrorResponse(w, err.Error(), statusFor(err))
		return
	}

	utils.MessageResponse(w, "Chat deleted", http.StatusOK)
}

// ListMessages returns a page of visible messages, oldest first
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	chatID, err := strconv.ParseInt(mux.Vars(r)["chatId"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, total, err := h.service.ListMessages(r.Context(), chatID, userID, page, limit)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), statusFor(err))
		return
	}

	utils.SuccessResponse(w, map[string]interface{}{
		"messages": messages,
		"total":    total,
	}, http.StatusOK)
}

// SendMessage is the REST fallback for clients without an open socket.
// Delivery to online participants still happens through the hub.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	message, err := h.service.SendMessage(r.Context(), userID, &req)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), statusFor(err))
		return
	}

	utils.SuccessResponse(w, message, http.StatusCreated)
}

// DeleteMessage removes a message for the caller or for everyone
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	messageID, err := strconv.ParseInt(mux.Vars(r)["messageId"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, "Invalid message ID", http.StatusBadRequest)
		return
	}

	req := DeleteMessageRequest{DeleteFor: DeleteForSelf}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
			return
		}
	}

	if err := h.service.DeleteMessage(r.Context(), messageID, userID, req.DeleteFor); err != nil {
		utils.ErrorResponse(w, err.Error(), statusFor(err))
		return
	}

	utils.MessageResponse(w, "Message deleted", http.StatusOK)
}

// UploadMedia stores a media file and returns its URL and detected type
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.ErrorResponse(w, "Invalid upload", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.ErrorResponse(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mediaType, ok := mediaTypeFor(header.Header.Get("Content-Type"))
	if !ok {
		utils.ErrorResponse(w, ErrInvalidMedia.Error(), http.StatusBadRequest)
		return
	}

	url, err := h.uploader.UploadMultipartFile(r.Context(), file, header, "chat")
	if err != nil {
		utils.ErrorResponse(w, "Upload failed", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, Media{Type: mediaType, URL: url}, http.StatusCreated)
}

func mediaTypeFor(contentType string) (MediaType, bool) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MediaImage, true
	case strings.HasPrefix(contentType, "video/"):
		return MediaVideo, true
	case strings.HasPrefix(contentType, "audio/"):
		return MediaAudio, true
	}
	return "", false
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrChatNotFound),
		errors.Is(err, ErrMessageNotFound),
		errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotParticipant),
		errors.Is(err, ErrNotSender):
		return http.StatusForbidden
	case errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrMessageTooLong),
		errors.Is(err, ErrInvalidMedia),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidScope),
		errors.Is(err, ErrSelfChat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
