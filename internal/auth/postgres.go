// internal/auth/postgres.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

const userColumns = `
	id, email, username, full_name, password_hash, profile_picture, bio,
	is_verified, is_online, last_seen, created_at, updated_at`

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateUser(ctx context.Context, user *User) error {
	query := `
        INSERT INTO users (email, username, full_name, password_hash)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		user.Email,
		user.Username,
		user.FullName,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *postgresRepository) GetUserByID(ctx context.Context, userID int64) (*User, error) {
	var user User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	if err := r.db.GetContext(ctx, &user, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *postgresRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *postgresRepository) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	err := r.db.GetContext(ctx, &exists, query, email)
	return exists, err
}

func (r *postgresRepository) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	err := r.db.GetContext(ctx, &exists, query, username)
	return exists, err
}

func (r *postgresRepository) VerifyUser(ctx context.Context, userID int64) error {
	query := `UPDATE users SET is_verified = true, updated_at = NOW() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func (r *postgresRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, userID, passwordHash)
	return err
}

// SaveOTP replaces any previous code of the same type for the user
func (r *postgresRepository) SaveOTP(ctx context.Context, otp *OTP) error {
	if err := r.DeleteOTPs(ctx, otp.UserID, otp.Type); err != nil {
		return err
	}

	query := `
        INSERT INTO otps (user_id, code, type, expires_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		otp.UserID,
		otp.Code,
		otp.Type,
		otp.ExpiresAt,
	).Scan(&otp.ID, &otp.CreatedAt)
}

func (r *postgresRepository) GetActiveOTP(ctx context.Context, userID int64, otpType OTPType) (*OTP, error) {
	var otp OTP
	query := `
        SELECT id, user_id, code, type, attempts, expires_at, created_at
        FROM otps
        WHERE user_id = $1 AND type = $2 AND expires_at > NOW()
        ORDER BY created_at DESC
        LIMIT 1`

	if err := r.db.GetContext(ctx, &otp, query, userID, otpType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidOTP
		}
		return nil, err
	}
	return &otp, nil
}

func (r *postgresRepository) IncrementOTPAttempts(ctx context.Context, otpID int64) error {
	query := `UPDATE otps SET attempts = attempts + 1 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, otpID)
	return err
}

func (r *postgresRepository) DeleteOTPs(ctx context.Context, userID int64, otpType OTPType) error {
	query := `DELETE FROM otps WHERE user_id = $1 AND type = $2`

	_, err := r.db.ExecContext(ctx, query, userID, otpType)
	return err
}

func (r *postgresRepository) DeleteExpiredOTPs(ctx context.Context, before time.Time) error {
	query := `DELETE FROM otps WHERE expires_at < $1`

	_, err := r.db.ExecContext(ctx, query, before)
	return err
}
