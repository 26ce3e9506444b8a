// internal/profile/repository.go

package profile

import (
	"context"
)

type Repository interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) error
	UpdateProfilePicture(ctx context.Context, userID int64, url string) error
	SearchUsers(ctx context.Context, excludeUserID int64, query string, limit int) ([]*Profile, error)
}
