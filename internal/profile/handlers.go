// internal/profile/handlers.go

package profile

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/anyjobhub/qalbii/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetMyProfile returns the caller's own profile
func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), profileStatusFor(err))
		return
	}

	utils.SuccessResponse(w, profile, http.StatusOK)
}

// GetProfile returns another user's profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	profile, err := h.service.GetProfile(r.Context(), targetID)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), profileStatusFor(err))
		return
	}

	// Email stays private on other people's profiles
	profile.Email = ""

	utils.SuccessResponse(w, profile, http.StatusOK)
}

// UpdateProfile applies partial edits to the caller's profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), profileStatusFor(err))
		return
	}

	utils.SuccessResponse(w, profile, http.StatusOK)
}

// UploadProfilePicture stores a new avatar
func (h *Handler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.ErrorResponse(w, "Invalid upload", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.ErrorResponse(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	url, err := h.service.UploadProfilePicture(r.Context(), userID, file, header)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), profileStatusFor(err))
		return
	}

	utils.SuccessResponse(w, map[string]string{"profile_picture": url}, http.StatusCreated)
}

// SearchUsers finds users by username or name
func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	query := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	profiles, err := h.service.SearchUsers(r.Context(), userID, query, limit)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), profileStatusFor(err))
		return
	}

	utils.SuccessResponse(w, profiles, http.StatusOK)
}

func profileStatusFor(err error) int {
	switch {
	case errors.Is(err, ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidImageFormat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
