// internal/auth/repository.go

package auth

import (
	"context"
	"time"
)

type Repository interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, userID int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
	VerifyUser(ctx context.Context, userID int64) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error

	// One-time codes
	SaveOTP(ctx context.Context, otp *OTP) error
	GetActiveOTP(ctx context.Context, userID int64, otpType OTPType) (*OTP, error)
	IncrementOTPAttempts(ctx context.Context, otpID int64) error
	DeleteOTPs(ctx context.Context, userID int64, otpType OTPType) error
	DeleteExpiredOTPs(ctx context.Context, before time.Time) error
}
