// internal/profile/routes.go

package profile

import (
	"net/http"

	"github.com/gorilla/mux"
)

// AuthMiddleware type for the authentication middleware function
type AuthMiddleware func(http.HandlerFunc) http.HandlerFunc

// RegisterRoutes registers all profile routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware AuthMiddleware) {
	api := router.PathPrefix("/api/profile").Subrouter()
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authMiddleware(next.ServeHTTP)(w, r)
		})
	})

	api.HandleFunc("", handler.GetMyProfile).Methods("GET")
	api.HandleFunc("", handler.UpdateProfile).Methods("PUT", "PATCH")
	api.HandleFunc("/picture", handler.UploadProfilePicture).Methods("POST")
	api.HandleFunc("/search", handler.SearchUsers).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}", handler.GetProfile).Methods("GET")
}
