package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/harplab/site-api/internal/apperror"
	"github.com/harplab/site-api/internal/model"
)

// fakeObjectStore records puts and deletes in memory.
type fakeObjectStore struct {
	objects   map[string][]byte
	nextID    int
	putErr    error
	deleteErr error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.nextID++
	url := fmt.Sprintf("https://assets.example.org/profiles/%d", f.nextID)
	f.objects[url] = data
	return url, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, url string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, url)
	return nil
}

func profileUpload(size int) *ImageUpload {
	return &ImageUpload{Data: make([]byte, size), MimeType: "image/png", Filename: "me.png"}
}

func TestUploadPicture(t *testing.T) {
	users := newFakeUserRepo()
	store := newFakeObjectStore()
	svc := NewProfileService(users, store, testLogger())

	user := &model.User{Email: "ada@example.org", IsActive: true}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	url, err := svc.UploadPicture(context.Background(), user, profileUpload(1024))
	if err != nil {
		t.Fatalf("UploadPicture() error = %v", err)
	}
	if url == "" {
		t.Fatal("UploadPicture() returned an empty URL")
	}
	if _, ok := store.objects[url]; !ok {
		t.Error("object not stored")
	}

	stored := users.users["ada@example.org"]
	if stored.ProfilePicture == nil || *stored.ProfilePicture != url {
		t.Error("URL not recorded on the user row")
	}
}

func TestUploadPicture_ReplacesOldObject(t *testing.T) {
	users := newFakeUserRepo()
	store := newFakeObjectStore()
	svc := NewProfileService(users, store, testLogger())

	user := &model.User{Email: "ada@example.org", IsActive: true}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	first, err := svc.UploadPicture(context.Background(), user, profileUpload(10))
	if err != nil {
		t.Fatalf("first UploadPicture() error = %v", err)
	}

	// The service reads the old URL from the passed-in user.
	user.ProfilePicture = &first
	second, err := svc.UploadPicture(context.Background(), user, profileUpload(20))
	if err != nil {
		t.Fatalf("second UploadPicture() error = %v", err)
	}

	if _, ok := store.objects[first]; ok {
		t.Error("old object should be deleted after replacement")
	}
	if _, ok := store.objects[second]; !ok {
		t.Error("new object missing")
	}
}

func TestUploadPicture_DeleteFailureIsNotFatal(t *testing.T) {
	users := newFakeUserRepo()
	store := newFakeObjectStore()
	svc := NewProfileService(users, store, testLogger())

	user := &model.User{Email: "ada@example.org", IsActive: true}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	old := "https://assets.example.org/profiles/old"
	user.ProfilePicture = &old
	store.deleteErr = errors.New("bucket unreachable")

	url, err := svc.UploadPicture(context.Background(), user, profileUpload(10))
	if err != nil {
		t.Fatalf("UploadPicture() should succeed despite delete failure, got %v", err)
	}

	stored := users.users["ada@example.org"]
	if stored.ProfilePicture == nil || *stored.ProfilePicture != url {
		t.Error("new URL should be recorded even when old delete fails")
	}
}

func TestUploadPicture_Validation(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewProfileService(users, newFakeObjectStore(), testLogger())
	user := &model.User{Email: "ada@example.org", IsActive: true}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("oversized", func(t *testing.T) {
		_, err := svc.UploadPicture(context.Background(), user, profileUpload(MaxProfileImageBytes+1))
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("got %v, want ErrValidation", err)
		}
	})

	t.Run("at limit passes", func(t *testing.T) {
		if _, err := svc.UploadPicture(context.Background(), user, profileUpload(MaxProfileImageBytes)); err != nil {
			t.Errorf("upload at the limit should pass, got %v", err)
		}
	})

	t.Run("bad mime type", func(t *testing.T) {
		_, err := svc.UploadPicture(context.Background(), user, &ImageUpload{
			Data: []byte{1}, MimeType: "text/html",
		})
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("got %v, want ErrValidation", err)
		}
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		store := newFakeObjectStore()
		store.putErr = errors.New("bucket unreachable")
		failing := NewProfileService(users, store, testLogger())

		if _, err := failing.UploadPicture(context.Background(), user, profileUpload(10)); err == nil {
			t.Error("Put failure should fail the upload")
		}
	})
}
