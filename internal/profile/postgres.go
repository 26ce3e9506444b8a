// internal/profile/postgres.go

package profile

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

const profileColumns = `
	id, username, full_name, email, profile_picture, bio,
	is_online, last_seen, created_at, updated_at`

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	var profile Profile
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1`

	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile applies only the fields present in the request
func (r *postgresRepository) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) error {
	query := `
        UPDATE users
        SET full_name = COALESCE($2, full_name),
            bio = COALESCE($3, bio),
            updated_at = NOW()
        WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, req.FullName, req.Bio)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *postgresRepository) UpdateProfilePicture(ctx context.Context, userID int64, url string) error {
	query := `UPDATE users SET profile_picture = $2, updated_at = NOW() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, userID, url)
	return err
}

// SearchUsers matches username or full name, excluding the caller
func (r *postgresRepository) SearchUsers(ctx context.Context, excludeUserID int64, query string, limit int) ([]*Profile, error) {
	sqlQuery := `
        SELECT ` + profileColumns + `
        FROM users
        WHERE id != $1
          AND is_verified = true
          AND (username ILIKE $2 OR full_name ILIKE $2)
        ORDER BY username
        LIMIT $3`

	profiles := []*Profile{}
	pattern := "%" + query + "%"
	if err := r.db.SelectContext(ctx, &profiles, sqlQuery, excludeUserID, pattern, limit); err != nil {
		return nil, err
	}
	return profiles, nil
}
