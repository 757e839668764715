// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents an account in the credential store, keyed by email.
//
// Two login methods exist: email+password (PasswordHash set) and Google OAuth
// (OAuthID set). A pure-OAuth account has no password hash at all, which is
// why PasswordHash is a pointer — NULL in the database, nil here. At least one
// of the two must be present for the account to be usable.
//
// ResetToken and ResetTokenExpiry are always set and cleared together. A
// non-nil token with an expiry in the past is treated as no token.
type User struct {
	Email            string     `json:"email" db:"email"`
	PasswordHash     *string    `json:"-" db:"password_hash"`
	FullName         string     `json:"full_name" db:"full_name"`
	IsAdmin          bool       `json:"is_admin" db:"is_admin"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	LastLogin        *time.Time `json:"last_login,omitempty" db:"last_login"`
	OAuthID          *string    `json:"-" db:"oauth_id"`
	ProfilePicture   *string    `json:"profile_picture,omitempty" db:"profile_picture"`
	ResetToken       *string    `json:"-" db:"reset_token"`
	ResetTokenExpiry *time.Time `json:"-" db:"reset_token_expiry"`
}

// UserPublic is the subset of User that is safe to return to clients.
// Handlers must never serialize User directly — the hash and reset token
// stay server-side.
type UserPublic struct {
	Email          string  `json:"email"`
	FullName       string  `json:"full_name"`
	IsAdmin        bool    `json:"is_admin"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

// Public strips a User down to its client-visible fields.
func (u *User) Public() UserPublic {
	return UserPublic{
		Email:          u.Email,
		FullName:       u.FullName,
		IsAdmin:        u.IsAdmin,
		ProfilePicture: u.ProfilePicture,
	}
}

// HasValidResetToken reports whether the user holds a reset token that has
// not yet expired.
func (u *User) HasValidResetToken(now time.Time) bool {
	return u.ResetToken != nil && u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now)
}
