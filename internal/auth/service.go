// internal/auth/service.go
// Business logic for signup, verification, login and password recovery

package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/anyjobhub/qalbii/internal/common/email"
	"github.com/anyjobhub/qalbii/internal/common/utils"
)

// Common errors
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUserNotVerified       = errors.New("account not verified")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrInvalidToken          = errors.New("invalid token")
	ErrInvalidOTP            = errors.New("invalid or expired verification code")
	ErrTooManyAttempts       = errors.New("too many attempts")
)

type Service interface {
	// Registration and authentication
	Signup(ctx context.Context, req *SignupRequest) (*SignupResponse, error)
	VerifyOTP(ctx context.Context, req *VerifyOTPRequest) (*AuthResponse, error)
	ResendOTP(ctx context.Context, req *ResendOTPRequest) error
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)

	// Token management
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)

	// Password recovery
	ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *ResetPasswordRequest) error

	// User queries
	GetUserByID(ctx context.Context, userID int64) (*User, error)

	// SecurityNotifier is attached after construction; nil means security
	// events are not recorded
	SetSecurityNotifier(alerts SecurityNotifier)
}

// SecurityNotifier records a security event for the user, with an email
// copy when one is configured. Implemented by the notification service.
type SecurityNotifier interface {
	NotifySecurityAlert(ctx context.Context, userID int64, emailAddr, title, message string) error
}

// Config holds service configuration
type Config struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	BCryptCost         int
	OTPExpiry          time.Duration
	OTPMaxAttempts     int
}

type service struct {
	repo   Repository
	emails email.Sender
	config *Config
	alerts SecurityNotifier
}

// NewService creates a new auth service
func NewService(repo Repository, emails email.Sender, config *Config) Service {
	return &service{
		repo:   repo,
		emails: emails,
		config: config,
	}
}

// Signup creates an unverified account and emails a verification code
func (s *service) Signup(ctx context.Context, req *SignupRequest) (*SignupResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))

	if taken, err := s.repo.IsEmailTaken(ctx, req.Email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if taken {
		return nil, ErrEmailAlreadyExists
	}

	if taken, err := s.repo.IsUsernameTaken(ctx, req.Username); err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	} else if taken {
		return nil, ErrUsernameAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BCryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Email:        req.Email,
		Username:     req.Username,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	message := fmt.Sprintf("Verification code sent to %s", user.Email)
	if err := s.sendOTP(ctx, user, OTPTypeSignup); err != nil {
		// Signup still succeeded; the client can ask for a resend
		log.Printf("Error sending signup OTP to user %d: %v", user.ID, err)
		message = "Failed to send verification code. Please request a new one."
	}

	return &SignupResponse{
		User:                 user,
		Message:              message,
		RequiresVerification: true,
	}, nil
}

// VerifyOTP confirms the signup code and signs the user in
func (s *service) VerifyOTP(ctx context.Context, req *VerifyOTPRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		return nil, err
	}

	if err := s.checkOTP(ctx, user.ID, OTPTypeSignup, req.OTP); err != nil {
		return nil, err
	}

	if err := s.repo.VerifyUser(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}
	user.IsVerified = true

	return s.buildAuthResponse(user)
}

// ResendOTP issues a fresh code of the requested type
func (s *service) ResendOTP(ctx context.Context, req *ResendOTPRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		// Do not reveal whether the account exists
		return nil
	}

	if req.Type == OTPTypeSignup && user.IsVerified {
		return errors.New("account already verified")
	}

	return s.sendOTP(ctx, user, req.Type)
}

// Login authenticates by email or username
func (s *service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	identifier := strings.ToLower(strings.TrimSpace(req.EmailOrUsername))

	var user *User
	var err error
	if isEmail(identifier) {
		user, err = s.repo.GetUserByEmail(ctx, identifier)
	} else {
		user, err = s.repo.GetUserByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		if err := s.sendOTP(ctx, user, OTPTypeSignup); err != nil {
			log.Printf("Error resending verification to user %d: %v", user.ID, err)
		}
		return nil, ErrUserNotVerified
	}

	return s.buildAuthResponse(user)
}

// RefreshToken exchanges a valid refresh token for a new pair
func (s *service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := utils.ValidateJWT(refreshToken, s.config.JWTSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.Type != "refresh" {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	return s.buildAuthResponse(user)
}

func (s *service) ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error) {
	return utils.ValidateJWT(token, s.config.JWTSecret)
}

// ForgotPassword emails a reset code. Always succeeds from the client's
// point of view to prevent email enumeration.
func (s *service) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		return nil
	}

	if err := s.sendOTP(ctx, user, OTPTypePasswordReset); err != nil {
		log.Printf("Error sending reset OTP to user %d: %v", user.ID, err)
	}
	return nil
}

// ResetPassword verifies the reset code and stores the new password
func (s *service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		return ErrInvalidOTP
	}

	if err := s.checkOTP(ctx, user.ID, OTPTypePasswordReset, req.OTP); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.config.BCryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if s.alerts != nil {
		err := s.alerts.NotifySecurityAlert(ctx, user.ID, user.Email,
			"Password changed",
			"Your password was just changed. If this wasn't you, reset it immediately.")
		if err != nil {
			log.Printf("Error recording password change alert for user %d: %v", user.ID, err)
		}
	}

	return nil
}

func (s *service) GetUserByID(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *service) SetSecurityNotifier(alerts SecurityNotifier) {
	s.alerts = alerts
}

// Helpers

func (s *service) sendOTP(ctx context.Context, user *User, otpType OTPType) error {
	code, err := generateOTPCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	otp := &OTP{
		UserID:    user.ID,
		Code:      code,
		Type:      otpType,
		ExpiresAt: time.Now().Add(s.config.OTPExpiry),
	}

	if err := s.repo.SaveOTP(ctx, otp); err != nil {
		return fmt.Errorf("failed to save code: %w", err)
	}

	subject := "Verify your account"
	if otpType == OTPTypePasswordReset {
		subject = "Reset your password"
	}

	body := fmt.Sprintf("Your verification code is: %s\n\nThis code expires in %d minutes.",
		code, int(s.config.OTPExpiry.Minutes()))

	return s.emails.Send(ctx, &email.Message{
		To:      user.Email,
		Subject: subject,
		Body:    body,
	})
}

// checkOTP validates the supplied code and consumes it on success
func (s *service) checkOTP(ctx context.Context, userID int64, otpType OTPType, code string) error {
	otp, err := s.repo.GetActiveOTP(ctx, userID, otpType)
	if err != nil {
		return err
	}

	if otp.Attempts >= s.config.OTPMaxAttempts {
		return ErrTooManyAttempts
	}

	if otp.Code != code {
		if err := s.repo.IncrementOTPAttempts(ctx, otp.ID); err != nil {
			log.Printf("Error recording OTP attempt: %v", err)
		}
		return ErrInvalidOTP
	}

	return s.repo.DeleteOTPs(ctx, userID, otpType)
}

func (s *service) buildAuthResponse(user *User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Username, "access", s.config.JWTSecret, s.config.AccessTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateJWT(user.ID, user.Username, "refresh", s.config.JWTSecret, s.config.RefreshTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.config.AccessTokenExpiry.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isEmail(input string) bool {
	return emailRegex.MatchString(input)
}
