package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/harplab/site-api/internal/apperror"
	"github.com/harplab/site-api/internal/model"
)

// fakeArticleRepo is an in-memory repository.ArticleRepository.
type fakeArticleRepo struct {
	articles map[string]*model.Article
	images   map[string]*model.Image // keyed by article ID
	nextID   int
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{
		articles: make(map[string]*model.Article),
		images:   make(map[string]*model.Image),
		nextID:   1,
	}
}

func (f *fakeArticleRepo) Create(ctx context.Context, article *model.Article, image *model.Image) error {
	article.ID = fmt.Sprintf("art-%d", f.nextID)
	f.nextID++
	copied := *article
	f.articles[article.ID] = &copied
	if image != nil {
		img := *image
		f.images[article.ID] = &img
	}
	return nil
}

func (f *fakeArticleRepo) List(ctx context.Context) ([]model.Article, error) {
	out := make([]model.Article, 0, len(f.articles))
	for _, a := range f.articles {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeArticleRepo) ListTop(ctx context.Context) ([]model.Article, error) {
	out := []model.Article{}
	for _, a := range f.articles {
		if a.TopStory {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeArticleRepo) Search(ctx context.Context, query string) ([]model.Article, error) {
	if query == "" {
		return f.List(ctx)
	}
	out := []model.Article{}
	for _, a := range f.articles {
		if strings.Contains(strings.ToLower(a.Title), strings.ToLower(query)) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeArticleRepo) GetByID(ctx context.Context, id string) (*model.Article, error) {
	a, ok := f.articles[id]
	if !ok {
		return nil, apperror.NotFound("article", id)
	}
	copied := *a
	return &copied, nil
}

func (f *fakeArticleRepo) GetImage(ctx context.Context, articleID string) (*model.Image, error) {
	img, ok := f.images[articleID]
	if !ok {
		return nil, apperror.NotFound("article image", articleID)
	}
	return img, nil
}

func (f *fakeArticleRepo) SetTopStory(ctx context.Context, id string, topStory bool) error {
	a, ok := f.articles[id]
	if !ok {
		return apperror.NotFound("article", id)
	}
	a.TopStory = topStory
	return nil
}

func (f *fakeArticleRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.articles[id]; !ok {
		return apperror.NotFound("article", id)
	}
	delete(f.articles, id)
	delete(f.images, id)
	return nil
}

func validUpload() *ImageUpload {
	return &ImageUpload{Data: []byte{0xFF, 0xD8}, MimeType: "image/jpeg", Filename: "a.jpg"}
}

func TestArticleCreateService(t *testing.T) {
	repo := newFakeArticleRepo()
	svc := NewArticleService(repo, testLogger())

	article, err := svc.Create(context.Background(), ArticleInput{
		Title:    "  Launch Day  ",
		Intro:    "We shipped",
		Content:  "<p>Details</p>",
		ReadTime: "5 min",
		TopStory: "true",
	}, validUpload())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if article.Title != "Launch Day" {
		t.Errorf("title not trimmed: %q", article.Title)
	}
	if !article.TopStory {
		t.Error("top_story \"true\" should coerce to true")
	}
	if _, ok := repo.images[article.ID]; !ok {
		t.Error("image not persisted alongside the article")
	}
}

func TestArticleCreate_SanitizesMarkup(t *testing.T) {
	svc := NewArticleService(newFakeArticleRepo(), testLogger())

	article, err := svc.Create(context.Background(), ArticleInput{
		Title:   "XSS attempt",
		Intro:   `hello <script>alert(1)</script> world`,
		Content: `<p onclick="steal()">fine</p>`,
	}, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if strings.Contains(article.Intro, "<script>") {
		t.Errorf("intro kept script tag: %q", article.Intro)
	}
	if strings.Contains(article.Content, "onclick") {
		t.Errorf("content kept event handler: %q", article.Content)
	}
	if !strings.Contains(article.Content, "fine") {
		t.Errorf("sanitizer stripped legitimate text: %q", article.Content)
	}
}

func TestArticleCreate_Validation(t *testing.T) {
	svc := NewArticleService(newFakeArticleRepo(), testLogger())

	tests := []struct {
		name  string
		input ArticleInput
		image *ImageUpload
	}{
		{"missing title", ArticleInput{Title: "   "}, nil},
		{"bad top_story value", ArticleInput{Title: "ok", TopStory: "yes"}, nil},
		{"bad image type", ArticleInput{Title: "ok"},
			&ImageUpload{Data: []byte{1}, MimeType: "application/pdf"}},
		{"empty image", ArticleInput{Title: "ok"},
			&ImageUpload{Data: nil, MimeType: "image/png"}},
		{"oversized image", ArticleInput{Title: "ok"},
			&ImageUpload{Data: make([]byte, MaxImageBytes+1), MimeType: "image/png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.input, tt.image)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() = %v, want ErrValidation", err)
			}
		})
	}
}

func TestParseFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"TRUE", true, false},
		{" true ", true, false},
		{"false", false, false},
		{"", false, false},
		{"yes", false, true},
		{"1", false, true},
	}
	for _, tt := range tests {
		got, err := parseFlag(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseFlag(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseFlag(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestToggleTopStory(t *testing.T) {
	repo := newFakeArticleRepo()
	svc := NewArticleService(repo, testLogger())

	created, err := svc.Create(context.Background(), ArticleInput{Title: "Toggle"}, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := svc.ToggleTopStory(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("ToggleTopStory() error = %v", err)
	}
	if !got.TopStory {
		t.Error("first toggle should set top story")
	}

	got, err = svc.ToggleTopStory(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("ToggleTopStory() error = %v", err)
	}
	if got.TopStory {
		t.Error("second toggle should clear top story")
	}

	if _, err := svc.ToggleTopStory(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ToggleTopStory(missing) = %v, want ErrNotFound", err)
	}
}

func TestArticleDeleteService(t *testing.T) {
	repo := newFakeArticleRepo()
	svc := NewArticleService(repo, testLogger())

	created, err := svc.Create(context.Background(), ArticleInput{Title: "Doomed"}, validUpload())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() twice = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(context.Background(), ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Delete(\"\") = %v, want ErrValidation", err)
	}
}
