// internal/auth/models.go

package auth

import (
	"time"
)

// User represents an account. The password hash never leaves the server.
type User struct {
	ID             int64      `json:"id" db:"id"`
	Email          string     `json:"email" db:"email"`
	Username       string     `json:"username" db:"username"`
	FullName       string     `json:"full_name" db:"full_name"`
	PasswordHash   string     `json:"-" db:"password_hash"`
	ProfilePicture *string    `json:"profile_picture,omitempty" db:"profile_picture"`
	Bio            *string    `json:"bio,omitempty" db:"bio"`
	IsVerified     bool       `json:"is_verified" db:"is_verified"`
	IsOnline       bool       `json:"is_online" db:"is_online"`
	LastSeen       *time.Time `json:"last_seen,omitempty" db:"last_seen"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// OTPType separates verification codes by purpose so a signup code can
// never complete a password reset
type OTPType string

const (
	OTPTypeSignup        OTPType = "signup"
	OTPTypePasswordReset OTPType = "password_reset"
)

// OTP is a stored one-time verification code
type OTP struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Code      string    `json:"-" db:"code"`
	Type      OTPType   `json:"type" db:"type"`
	Attempts  int       `json:"attempts" db:"attempts"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SignupRequest is what the client sends to create an account
type SignupRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,min=3,max=30,alphanum"`
	FullName        string `json:"full_name" validate:"required,min=2,max=100"`
	Password        string `json:"password" validate:"required,min=8,max=100"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginRequest authenticates by email or username
type LoginRequest struct {
	EmailOrUsername string `json:"email_or_username" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// VerifyOTPRequest completes signup verification
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// ResendOTPRequest requests a fresh verification code
type ResendOTPRequest struct {
	Email string  `json:"email" validate:"required,email"`
	Type  OTPType `json:"type" validate:"required,oneof=signup password_reset"`
}

// RefreshTokenRequest exchanges a refresh token for a new pair
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ForgotPasswordRequest initiates a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes a password reset with the emailed code
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=100"`
}

// AuthResponse is what we send back after successful authentication
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// SignupResponse for the OTP verification flow
type SignupResponse struct {
	User                 *User  `json:"user"`
	Message              string `json:"message"`
	RequiresVerification bool   `json:"requires_verification"`
}
