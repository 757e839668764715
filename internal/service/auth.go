// Package service contains the business logic layer: validation, permission
// rules, and orchestration between the auth utilities, the repositories, and
// object storage. Handlers call services; services never touch HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harplab/site-api/internal/apperror"
	"github.com/harplab/site-api/internal/auth"
	"github.com/harplab/site-api/internal/model"
	"github.com/harplab/site-api/internal/repository"
)

// resetTokenTTL is how long a password-reset token stays redeemable.
const resetTokenTTL = time.Hour

// minPasswordLength applies to registration and password reset alike.
const minPasswordLength = 8

// AuthService owns registration, login (password and Google), password
// reset, and the admin-management operations.
type AuthService struct {
	users       repository.UserRepository
	tokens      *auth.TokenService
	passwords   *auth.PasswordService
	frontendURL string
	logger      *slog.Logger
}

// NewAuthService wires an AuthService. frontendURL is the base for reset
// links, e.g. "https://example.org".
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	frontendURL string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		passwords:   passwords,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// AuthResult bundles the issued token with the user's public record so the
// handler can respond in one step.
type AuthResult struct {
	Token string
	User  model.UserPublic
}

// Register creates a password-based account. A duplicate email comes back
// as apperror.ErrConflict and never creates a second row.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*model.UserPublic, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(password) < minPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters long", minPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		PasswordHash: &hash,
		FullName:     strings.TrimSpace(fullName),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("email", user.Email))

	pub := user.Public()
	return &pub, nil
}

// Login verifies an email/password pair and issues a 24h bearer token.
// Unknown email, OAuth-only account, and wrong password all return the same
// Unauthorized error so responses don't reveal which accounts exist. A
// successful login stamps last_login.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if user.PasswordHash == nil || !user.IsActive {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if err := s.passwords.Verify(*user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	if err := s.users.TouchLastLogin(ctx, user.Email); err != nil {
		return nil, fmt.Errorf("service/auth: updating last login for %s: %w", user.Email, err)
	}

	return s.issueToken(user)
}

// LoginWithGoogle handles the OAuth callback's login-or-register step.
//
// Lookup is by email first, then by the provider's subject ID. An existing
// account keeps its admin flag untouched — OAuth login can never grant or
// revoke privilege — and gets the Google subject linked if it wasn't
// already. An unknown profile becomes a fresh non-admin account with the
// provider-supplied name and picture and no password hash.
func (s *AuthService) LoginWithGoogle(ctx context.Context, profile *auth.GoogleUser) (*AuthResult, error) {
	if profile == nil {
		return nil, errors.New("service/auth: Google profile must not be nil")
	}

	user, err := s.users.GetByEmail(ctx, profile.Email)
	if errors.Is(err, apperror.ErrNotFound) {
		user, err = s.users.GetByOAuthID(ctx, profile.ID)
	}

	switch {
	case err == nil:
		if user.OAuthID == nil || *user.OAuthID != profile.ID {
			if err := s.users.SetOAuthID(ctx, user.Email, profile.ID); err != nil {
				return nil, fmt.Errorf("service/auth: linking Google account for %s: %w", user.Email, err)
			}
		}
		if err := s.users.TouchLastLogin(ctx, user.Email); err != nil {
			return nil, fmt.Errorf("service/auth: updating last login for %s: %w", user.Email, err)
		}

	case errors.Is(err, apperror.ErrNotFound):
		oauthID := profile.ID
		user = &model.User{
			Email:    strings.ToLower(profile.Email),
			FullName: profile.Name,
			IsActive: true,
			OAuthID:  &oauthID,
		}
		if profile.Picture != "" {
			pic := profile.Picture
			user.ProfilePicture = &pic
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: creating user for Google login: %w", err)
		}
		s.logger.Info("user registered via Google", slog.String("email", user.Email))

	default:
		return nil, fmt.Errorf("service/auth: looking up Google profile: %w", err)
	}

	return s.issueToken(user)
}

// RequestPasswordReset generates a single-use token valid for one hour and
// returns the frontend reset link. Unknown emails return ErrNotFound.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token, err := auth.NewResetToken()
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}

	expiry := time.Now().Add(resetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.Email, token, expiry); err != nil {
		return "", fmt.Errorf("service/auth: storing reset token for %s: %w", user.Email, err)
	}

	s.logger.Info("password reset requested", slog.String("email", user.Email))
	return s.frontendURL + "/reset-password/" + token, nil
}

// ResetPassword redeems a reset token. The token must be known and
// unexpired and the new password at least 8 characters. Consumption clears
// the token pair atomically, so a second redemption of the same token fails
// even if it races the first.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return apperror.ValidationFailed("token", "invalid or expired reset token")
	}
	if len(newPassword) < minPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters long", minPasswordLength))
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.ValidationFailed("token", "invalid or expired reset token")
		}
		return fmt.Errorf("service/auth: looking up reset token: %w", err)
	}
	if !user.HasValidResetToken(time.Now()) {
		return apperror.ValidationFailed("token", "invalid or expired reset token")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return apperror.ValidationFailed("password", err.Error())
	}

	if err := s.users.ConsumeResetToken(ctx, token, hash); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.ValidationFailed("token", "invalid or expired reset token")
		}
		return fmt.Errorf("service/auth: consuming reset token: %w", err)
	}

	s.logger.Info("password reset completed", slog.String("email", user.Email))
	return nil
}

// ListUsers returns the public record of every account, for the admin
// roster view.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.UserPublic, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/auth: listing users: %w", err)
	}

	out := make([]model.UserPublic, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

// ToggleAdmin flips another user's admin flag. Admins cannot change their
// own flag — that would let the last admin lock everyone out, and the
// original rule exists to stop accidental self-demotion.
func (s *AuthService) ToggleAdmin(ctx context.Context, actor *model.User, email string) (*model.UserPublic, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == actor.Email {
		return nil, apperror.Forbidden("cannot change your own admin status")
	}

	target, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := s.users.SetAdmin(ctx, target.Email, !target.IsAdmin); err != nil {
		return nil, fmt.Errorf("service/auth: toggling admin for %s: %w", target.Email, err)
	}
	target.IsAdmin = !target.IsAdmin

	s.logger.Info("admin flag toggled",
		slog.String("actor", actor.Email),
		slog.String("target", target.Email),
		slog.Bool("is_admin", target.IsAdmin),
	)

	pub := target.Public()
	return &pub, nil
}

// issueToken signs a bearer token for the user and pairs it with the public
// record.
func (s *AuthService) issueToken(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(auth.Identity{
		Email:    user.Email,
		FullName: user.FullName,
		IsAdmin:  user.IsAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for %s: %w", user.Email, err)
	}

	return &AuthResult{Token: token, User: user.Public()}, nil
}
