// internal/profile/models.go

package profile

import (
	"time"
)

// Profile is the public view of an account
type Profile struct {
	ID             int64      `json:"id" db:"id"`
	Username       string     `json:"username" db:"username"`
	FullName       string     `json:"full_name" db:"full_name"`
	Email          string     `json:"email,omitempty" db:"email"`
	ProfilePicture *string    `json:"profile_picture,omitempty" db:"profile_picture"`
	Bio            *string    `json:"bio,omitempty" db:"bio"`
	IsOnline       bool       `json:"is_online" db:"is_online"`
	LastSeen       *time.Time `json:"last_seen,omitempty" db:"last_seen"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// UpdateProfileRequest carries partial profile edits
type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=2,max=100"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=500"`
}

// SearchRequest filters the user directory
type SearchRequest struct {
	Query string `json:"query" validate:"required,min=1,max=100"`
	Limit int    `json:"limit"`
}
