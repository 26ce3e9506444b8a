// internal/auth/handlers.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/anyjobhub/qalbii/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Signup creates a new account and starts email verification
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	response, err := h.service.Signup(r.Context(), &req)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), authStatusFor(err))
		return
	}

	utils.SuccessResponse(w, response, http.StatusCreated)
}

// VerifyOTP completes signup verification
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	response, err := h.service.VerifyOTP(r.Context(), &req)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), authStatusFor(err))
		return
	}

	utils.SuccessResponse(w, response, http.StatusOK)
}

// ResendOTP issues a fresh verification code
func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req ResendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.service.ResendOTP(r.Context(), &req); err != nil {
		utils.ErrorResponse(w, err.Error(), authStatusFor(err))
		return
	}

	utils.MessageResponse(w, "Verification code sent", http.StatusOK)
}

// Login authenticates by email or username
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	response, err := h.service.Login(r.Context(), &req)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), authStatusFor(err))
		return
	}

	utils.SuccessResponse(w, response, http.StatusOK)
}

// RefreshToken exchanges a refresh token for a new pair
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	response, err := h.service.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), authStatusFor(err))
		return
	}

	utils.SuccessResponse(w, response, http.StatusOK)
}

// ForgotPassword starts password recovery
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), &req); err != nil {
		utils.ErrorResponse(w, err.Error(), authStatusFor(err))
		return
	}

	utils.MessageResponse(w, "If the account exists, a reset code has been sent", http.StatusOK)
}

// ResetPassword completes password recovery
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.service.ResetPassword(r.Context(), &req); err != nil {
		utils.ErrorResponse(w, err.Error(), authStatusFor(err))
		return
	}

	utils.MessageResponse(w, "Password updated", http.StatusOK)
}

// Me returns the authenticated user's account
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), authStatusFor(err))
		return
	}

	utils.SuccessResponse(w, user, http.StatusOK)
}

func authStatusFor(err error) int {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUserNotVerified):
		return http.StatusForbidden
	case errors.Is(err, ErrEmailAlreadyExists),
		errors.Is(err, ErrUsernameAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidOTP):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyAttempts):
		return http.StatusTooManyRequests
	}
	return http.StatusBadRequest
}
