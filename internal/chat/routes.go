// internal/chat/routes.go

package chat

import (
	"net/http"

	"github.com/gorilla/mux"
)

// AuthMiddleware type for the authentication middleware function
type AuthMiddleware func(http.HandlerFunc) http.HandlerFunc

// RegisterRoutes registers the chat REST surface and the socket endpoint
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware AuthMiddleware) {
	// WebSocket endpoint
	router.HandleFunc("/ws", authMiddleware(handler.HandleWebSocket)).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authMiddleware(next.ServeHTTP)(w, r)
		})
	})

	// Chat endpoints
	api.HandleFunc("/chat", handler.ListChats).Methods("GET")
	api.HandleFunc("/chat", handler.CreateChat).Methods("POST")
	api.HandleFunc("/chat/{id:[0-9]+}", handler.GetChat).Methods("GET")
	api.HandleFunc("/chat/{id:[0-9]+}", handler.DeleteChat).Methods("DELETE")

	// Message endpoints
	api.HandleFunc("/message/{chatId:[0-9]+}", handler.ListMessages).Methods("GET")
	api.HandleFunc("/message", handler.SendMessage).Methods("POST")
	api.HandleFunc("/message/{messageId:[0-9]+}", handler.DeleteMessage).Methods("DELETE")
	api.HandleFunc("/message/upload", handler.UploadMedia).Methods("POST")
}
