// internal/notification/routes.go

package notification

import (
	"net/http"

	"github.com/gorilla/mux"
)

// AuthMiddleware type for the authentication middleware function
type AuthMiddleware func(http.HandlerFunc) http.HandlerFunc

// RegisterRoutes registers all notification routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware AuthMiddleware) {
	api := router.PathPrefix("/api/notifications").Subrouter()
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authMiddleware(next.ServeHTTP)(w, r)
		})
	})

	api.HandleFunc("", handler.GetNotifications).Methods("GET")
	api.HandleFunc("/unread-count", handler.GetUnreadCount).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}/read", handler.MarkRead).Methods("POST")
	api.HandleFunc("/read-all", handler.MarkAllRead).Methods("POST")
	api.HandleFunc("/{id:[0-9]+}", handler.DeleteNotification).Methods("DELETE")
	api.HandleFunc("", handler.ClearNotifications).Methods("DELETE")
}
