// Package repository declares the storage interfaces consumed by the service
// layer. The sqlite subpackage provides the only implementation; tests use
// in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/harplab/site-api/internal/model"
)

// TeamMemberFilter narrows a roster listing. Zero values mean no filter.
// Validation of the allowed value sets happens in the service layer; the
// repository applies whatever it is given.
type TeamMemberFilter struct {
	Semester   string
	MemberType string
}

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByOAuthID(ctx context.Context, oauthID string) (*model.User, error)
	GetByResetToken(ctx context.Context, token string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	TouchLastLogin(ctx context.Context, email string) error
	SetOAuthID(ctx context.Context, email, oauthID string) error
	SetAdmin(ctx context.Context, email string, isAdmin bool) error
	SetProfilePicture(ctx context.Context, email, url string) error
	SetResetToken(ctx context.Context, email, token string, expiry time.Time) error
	// ConsumeResetToken re-hashes the password and clears the token pair in
	// one statement, so a token can never be redeemed twice.
	ConsumeResetToken(ctx context.Context, token, passwordHash string) error
}

// ArticleRepository is the article half of the content store. Create writes
// the row and its optional image in a single transaction.
type ArticleRepository interface {
	Create(ctx context.Context, article *model.Article, image *model.Image) error
	List(ctx context.Context) ([]model.Article, error)
	ListTop(ctx context.Context) ([]model.Article, error)
	Search(ctx context.Context, query string) ([]model.Article, error)
	GetByID(ctx context.Context, id string) (*model.Article, error)
	GetImage(ctx context.Context, articleID string) (*model.Image, error)
	SetTopStory(ctx context.Context, id string, topStory bool) error
	Delete(ctx context.Context, id string) error
}

// TeamMemberRepository is the roster half of the content store. Create and
// Update treat the member row and its portrait as one atomic unit.
type TeamMemberRepository interface {
	Create(ctx context.Context, member *model.TeamMember, image *model.Image) error
	List(ctx context.Context, filter TeamMemberFilter) ([]model.TeamMember, error)
	GetByID(ctx context.Context, id string) (*model.TeamMember, error)
	GetImage(ctx context.Context, memberID string) (*model.Image, error)
	Update(ctx context.Context, member *model.TeamMember, image *model.Image) error
	Delete(ctx context.Context, id string) error
}
