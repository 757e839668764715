package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harplab/site-api/internal/model"
	"github.com/harplab/site-api/internal/repository"
)

// ObjectStore is the slice of object storage the profile service needs.
// Implemented by blob.S3Store.
type ObjectStore interface {
	// Put stores the object and returns its public URL.
	Put(ctx context.Context, data []byte, mimeType string) (string, error)
	// Delete removes a previously stored object by its public URL.
	Delete(ctx context.Context, url string) error
}

// ProfileService uploads user profile pictures to object storage and
// records the resulting URL on the user row.
type ProfileService struct {
	users  repository.UserRepository
	store  ObjectStore
	logger *slog.Logger
}

func NewProfileService(users repository.UserRepository, store ObjectStore, logger *slog.Logger) *ProfileService {
	return &ProfileService{users: users, store: store, logger: logger}
}

// UploadPicture validates and stores a new profile picture for the user and
// returns its public URL. The new object is written and recorded before the
// old one is deleted, so a failed delete leaves the account pointing at a
// valid image; the orphaned object is logged rather than failing the
// request.
func (s *ProfileService) UploadPicture(ctx context.Context, user *model.User, upload *ImageUpload) (string, error) {
	if upload == nil {
		return "", fmt.Errorf("service/profile: upload must not be nil")
	}
	if err := validateImage(upload, MaxProfileImageBytes); err != nil {
		return "", err
	}

	url, err := s.store.Put(ctx, upload.Data, upload.MimeType)
	if err != nil {
		return "", fmt.Errorf("service/profile: storing picture for %s: %w", user.Email, err)
	}

	if err := s.users.SetProfilePicture(ctx, user.Email, url); err != nil {
		return "", fmt.Errorf("service/profile: recording picture for %s: %w", user.Email, err)
	}

	if old := user.ProfilePicture; old != nil && *old != "" && *old != url {
		if err := s.store.Delete(ctx, *old); err != nil {
			s.logger.Warn("failed to delete previous profile picture",
				slog.String("email", user.Email),
				slog.String("url", *old),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("profile picture updated",
		slog.String("email", user.Email),
		slog.String("url", url),
	)
	return url, nil
}
