// internal/auth/routes.go

package auth

import (
	"time"

	"github.com/gorilla/mux"

	"github.com/anyjobhub/qalbii/internal/common/middleware"
)

// RegisterRoutes registers all auth routes with their rate limits
func RegisterRoutes(router *mux.Router, handler *Handler, authMw *Middleware, limiter *middleware.RateLimiter) {
	api := router.PathPrefix("/api/auth").Subrouter()

	signup := api.NewRoute().Subrouter()
	signup.Use(limiter.Limit("signup", 5, time.Hour))
	signup.HandleFunc("/signup", handler.Signup).Methods("POST")

	login := api.NewRoute().Subrouter()
	login.Use(limiter.Limit("login", 10, 15*time.Minute))
	login.HandleFunc("/login", handler.Login).Methods("POST")

	otp := api.NewRoute().Subrouter()
	otp.Use(limiter.Limit("otp", 5, 15*time.Minute))
	otp.HandleFunc("/verify-otp", handler.VerifyOTP).Methods("POST")
	otp.HandleFunc("/resend-otp", handler.ResendOTP).Methods("POST")

	forgot := api.NewRoute().Subrouter()
	forgot.Use(limiter.Limit("forgot", 3, time.Hour))
	forgot.HandleFunc("/forgot-password", handler.ForgotPassword).Methods("POST")
	forgot.HandleFunc("/reset-password", handler.ResetPassword).Methods("POST")

	api.HandleFunc("/refresh", handler.RefreshToken).Methods("POST")
	api.HandleFunc("/me", authMw.Authenticate(handler.Me)).Methods("GET")
}
