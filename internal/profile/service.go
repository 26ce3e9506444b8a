// internal/profile/service.go

package profile

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/anyjobhub/qalbii/internal/common/storage"
	"github.com/anyjobhub/qalbii/internal/common/utils"
)

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrInvalidImageFormat = errors.New("invalid image format")
)

type Service interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*Profile, error)
	UploadProfilePicture(ctx context.Context, userID int64, file multipart.File, header *multipart.FileHeader) (string, error)
	SearchUsers(ctx context.Context, userID int64, query string, limit int) ([]*Profile, error)
}

type profileService struct {
	repo     Repository
	uploader storage.Uploader
}

func NewService(repo Repository, uploader storage.Uploader) Service {
	return &profileService{
		repo:     repo,
		uploader: uploader,
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

func (s *profileService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*Profile, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProfile(ctx, userID, req); err != nil {
		return nil, err
	}

	return s.repo.GetProfile(ctx, userID)
}

// UploadProfilePicture stores the image and replaces the previous one
func (s *profileService) UploadProfilePicture(ctx context.Context, userID int64, file multipart.File, header *multipart.FileHeader) (string, error) {
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		return "", ErrInvalidImageFormat
	}

	url, err := s.uploader.UploadMultipartFile(ctx, file, header, "avatars")
	if err != nil {
		return "", fmt.Errorf("failed to upload picture: %w", err)
	}

	if err := s.repo.UpdateProfilePicture(ctx, userID, url); err != nil {
		return "", fmt.Errorf("failed to save picture: %w", err)
	}

	return url, nil
}

func (s *profileService) SearchUsers(ctx context.Context, userID int64, query string, limit int) ([]*Profile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*Profile{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	return s.repo.SearchUsers(ctx, userID, query, limit)
}
