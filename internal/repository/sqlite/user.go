package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harplab/site-api/internal/apperror"
	"github.com/harplab/site-api/internal/model"
	"github.com/harplab/site-api/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

const userColumns = `email, password_hash, full_name, is_admin, is_active,
	created_at, last_login, oauth_id, profile_picture, reset_token, reset_token_expiry`

// Create inserts a new user row. Emails are stored lowercased so lookups are
// case-insensitive. A duplicate email maps to apperror.ErrConflict.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, full_name, is_admin, is_active,
		    created_at, oauth_id, profile_picture)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.IsAdmin,
		user.IsActive,
		user.CreatedAt,
		user.OAuthID,
		user.ProfilePicture,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}
	return nil
}

// GetByEmail retrieves a user by email. Returns apperror.ErrNotFound if no
// account exists.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.getUser(ctx, `WHERE email = ?`, email)
}

// GetByOAuthID retrieves a user by the external identity provider's subject ID.
func (s *UserStore) GetByOAuthID(ctx context.Context, oauthID string) (*model.User, error) {
	return s.getUser(ctx, `WHERE oauth_id = ?`, oauthID)
}

// GetByResetToken retrieves the user holding the given reset token. Expiry
// is checked by the caller, not here — the service owns that rule.
func (s *UserStore) GetByResetToken(ctx context.Context, token string) (*model.User, error) {
	return s.getUser(ctx, `WHERE reset_token = ?`, token)
}

func (s *UserStore) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User
	err := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users `+where, arg,
	).Scan(
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.IsAdmin,
		&u.IsActive,
		&u.CreatedAt,
		&u.LastLogin,
		&u.OAuthID,
		&u.ProfilePicture,
		&u.ResetToken,
		&u.ResetTokenExpiry,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}
	return &u, nil
}

// List returns every user, newest first. Used by the admin roster view.
func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.Email,
			&u.PasswordHash,
			&u.FullName,
			&u.IsAdmin,
			&u.IsActive,
			&u.CreatedAt,
			&u.LastLogin,
			&u.OAuthID,
			&u.ProfilePicture,
			&u.ResetToken,
			&u.ResetTokenExpiry,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// TouchLastLogin stamps last_login with the current time.
func (s *UserStore) TouchLastLogin(ctx context.Context, email string) error {
	return s.updateUser(ctx, email,
		`UPDATE users SET last_login = ? WHERE email = ?`, time.Now().UTC(), email)
}

// SetOAuthID links an external identity to an existing account.
func (s *UserStore) SetOAuthID(ctx context.Context, email, oauthID string) error {
	return s.updateUser(ctx, email,
		`UPDATE users SET oauth_id = ? WHERE email = ?`, oauthID, email)
}

// SetAdmin flips the admin flag.
func (s *UserStore) SetAdmin(ctx context.Context, email string, isAdmin bool) error {
	return s.updateUser(ctx, email,
		`UPDATE users SET is_admin = ? WHERE email = ?`, isAdmin, email)
}

// SetProfilePicture stores the object-storage URL of the user's picture.
func (s *UserStore) SetProfilePicture(ctx context.Context, email, url string) error {
	return s.updateUser(ctx, email,
		`UPDATE users SET profile_picture = ? WHERE email = ?`, url, email)
}

// SetResetToken stores a fresh reset token and its expiry, replacing any
// outstanding one — issuing a new token invalidates the old.
func (s *UserStore) SetResetToken(ctx context.Context, email, token string, expiry time.Time) error {
	return s.updateUser(ctx, email,
		`UPDATE users SET reset_token = ?, reset_token_expiry = ? WHERE email = ?`,
		token, expiry.UTC(), email)
}

// ConsumeResetToken sets the new password hash and clears the token pair in
// a single UPDATE keyed on the token itself. If the token was already
// consumed (or never existed) zero rows match and ErrNotFound comes back, so
// a token cannot be redeemed twice even by concurrent requests.
func (s *UserStore) ConsumeResetToken(ctx context.Context, token, passwordHash string) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users
		 SET password_hash = ?, reset_token = NULL, reset_token_expiry = NULL
		 WHERE reset_token = ?`,
		passwordHash, token)
	if err != nil {
		return fmt.Errorf("sqlite: consuming reset token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: consuming reset token: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("reset token", token)
	}
	return nil
}

// updateUser runs a single-row UPDATE and maps zero affected rows to
// ErrNotFound.
func (s *UserStore) updateUser(ctx context.Context, email, query string, args ...any) error {
	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", email, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", email, err)
	}
	if n == 0 {
		return apperror.NotFound("user", email)
	}
	return nil
}

// isUniqueViolation detects SQLite's UNIQUE/PRIMARY KEY constraint errors.
// The modernc driver surfaces them as plain error strings, so string
// matching is the reliable way to classify them.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
