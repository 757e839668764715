package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harplab/site-api/internal/apperror"
	"github.com/harplab/site-api/internal/model"
)

// newTestDB opens a fresh in-memory database with migrations applied. Each
// test gets its own; it is destroyed when the connection closes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func createTestUser(t *testing.T, u *UserStore, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: strPtr("$2a$04$fakehashfortesting"),
		FullName:     "Test User",
		IsActive:     true,
	}
	if err := u.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestUserCreateAndGet(t *testing.T) {
	u := newTestDB(t).Users()

	created := createTestUser(t, u, "Ada@Example.org")
	if created.Email != "ada@example.org" {
		t.Errorf("Create() should lowercase the email, got %q", created.Email)
	}
	if created.CreatedAt.IsZero() {
		t.Error("Create() did not set CreatedAt")
	}

	// Lookup is case-insensitive because storage is lowercased.
	got, err := u.GetByEmail(context.Background(), "ADA@example.ORG")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.Email != "ada@example.org" {
		t.Errorf("GetByEmail() email = %q", got.Email)
	}
	if got.PasswordHash == nil || *got.PasswordHash != *created.PasswordHash {
		t.Error("GetByEmail() lost the password hash")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	u := newTestDB(t).Users()
	createTestUser(t, u, "dup@example.org")

	err := u.Create(context.Background(), &model.User{
		Email:    "DUP@example.org",
		IsActive: true,
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() duplicate error = %v, want ErrConflict", err)
	}
}

func TestUserGetByEmail_NotFound(t *testing.T) {
	u := newTestDB(t).Users()

	_, err := u.GetByEmail(context.Background(), "ghost@example.org")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByEmail() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByOAuthID(t *testing.T) {
	u := newTestDB(t).Users()

	oauthID := "google-subject-123"
	user := &model.User{Email: "oauth@example.org", IsActive: true, OAuthID: &oauthID}
	if err := u.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := u.GetByOAuthID(context.Background(), oauthID)
	if err != nil {
		t.Fatalf("GetByOAuthID() error = %v", err)
	}
	if got.Email != "oauth@example.org" {
		t.Errorf("GetByOAuthID() email = %q", got.Email)
	}

	if _, err := u.GetByOAuthID(context.Background(), "unknown"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByOAuthID() unknown = %v, want ErrNotFound", err)
	}
}

func TestUserTouchLastLogin(t *testing.T) {
	u := newTestDB(t).Users()
	createTestUser(t, u, "login@example.org")

	if err := u.TouchLastLogin(context.Background(), "login@example.org"); err != nil {
		t.Fatalf("TouchLastLogin() error = %v", err)
	}

	got, err := u.GetByEmail(context.Background(), "login@example.org")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.LastLogin == nil {
		t.Fatal("LastLogin is nil after TouchLastLogin")
	}
	if time.Since(*got.LastLogin) > time.Minute {
		t.Errorf("LastLogin = %v, want roughly now", got.LastLogin)
	}

	if err := u.TouchLastLogin(context.Background(), "ghost@example.org"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("TouchLastLogin() unknown user = %v, want ErrNotFound", err)
	}
}

func TestUserSetAdmin(t *testing.T) {
	u := newTestDB(t).Users()
	createTestUser(t, u, "admin@example.org")

	if err := u.SetAdmin(context.Background(), "admin@example.org", true); err != nil {
		t.Fatalf("SetAdmin() error = %v", err)
	}
	got, _ := u.GetByEmail(context.Background(), "admin@example.org")
	if !got.IsAdmin {
		t.Error("IsAdmin = false after SetAdmin(true)")
	}

	if err := u.SetAdmin(context.Background(), "admin@example.org", false); err != nil {
		t.Fatalf("SetAdmin() error = %v", err)
	}
	got, _ = u.GetByEmail(context.Background(), "admin@example.org")
	if got.IsAdmin {
		t.Error("IsAdmin = true after SetAdmin(false)")
	}
}

func TestUserResetTokenLifecycle(t *testing.T) {
	u := newTestDB(t).Users()
	createTestUser(t, u, "reset@example.org")

	expiry := time.Now().Add(time.Hour).UTC()
	if err := u.SetResetToken(context.Background(), "reset@example.org", "tok123", expiry); err != nil {
		t.Fatalf("SetResetToken() error = %v", err)
	}

	got, err := u.GetByResetToken(context.Background(), "tok123")
	if err != nil {
		t.Fatalf("GetByResetToken() error = %v", err)
	}
	if got.Email != "reset@example.org" {
		t.Errorf("GetByResetToken() email = %q", got.Email)
	}
	if !got.HasValidResetToken(time.Now()) {
		t.Error("HasValidResetToken() = false for a fresh token")
	}

	// Consume sets the new hash and clears the token pair.
	if err := u.ConsumeResetToken(context.Background(), "tok123", "newhash"); err != nil {
		t.Fatalf("ConsumeResetToken() error = %v", err)
	}

	got, _ = u.GetByEmail(context.Background(), "reset@example.org")
	if got.ResetToken != nil || got.ResetTokenExpiry != nil {
		t.Error("token pair should be cleared after consumption")
	}
	if got.PasswordHash == nil || *got.PasswordHash != "newhash" {
		t.Error("password hash was not replaced")
	}

	// Second redemption of the same token must fail.
	if err := u.ConsumeResetToken(context.Background(), "tok123", "anotherhash"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ConsumeResetToken() reuse = %v, want ErrNotFound", err)
	}
}

func TestUserList(t *testing.T) {
	u := newTestDB(t).Users()
	createTestUser(t, u, "one@example.org")
	createTestUser(t, u, "two@example.org")

	users, err := u.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("List() returned %d users, want 2", len(users))
	}
}

func TestUserSetProfilePicture(t *testing.T) {
	u := newTestDB(t).Users()
	createTestUser(t, u, "pic@example.org")

	url := "https://assets.example.org/profiles/abc.png"
	if err := u.SetProfilePicture(context.Background(), "pic@example.org", url); err != nil {
		t.Fatalf("SetProfilePicture() error = %v", err)
	}

	got, _ := u.GetByEmail(context.Background(), "pic@example.org")
	if got.ProfilePicture == nil || *got.ProfilePicture != url {
		t.Errorf("ProfilePicture = %v, want %q", got.ProfilePicture, url)
	}
}
