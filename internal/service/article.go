package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/harplab/site-api/internal/apperror"
	"github.com/harplab/site-api/internal/model"
	"github.com/harplab/site-api/internal/repository"
)

// ArticleService handles article CRUD and search.
type ArticleService struct {
	repo      repository.ArticleRepository
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

// NewArticleService creates an ArticleService. Article intro and content
// may contain markup authored in the admin UI; the UGC policy strips
// scripts and event handlers while keeping basic formatting.
func NewArticleService(repo repository.ArticleRepository, logger *slog.Logger) *ArticleService {
	return &ArticleService{
		repo:      repo,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger,
	}
}

// ArticleInput carries the multipart form fields of a create request.
// TopStory arrives as the literal string "true"/"false" (or empty) because
// multipart forms have no boolean type.
type ArticleInput struct {
	Title    string
	Intro    string
	Content  string
	ReadTime string
	Link     string
	TopStory string
}

// List returns all articles, most recent first.
func (s *ArticleService) List(ctx context.Context) ([]model.Article, error) {
	articles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	return articles, nil
}

// ListTop returns the top-story articles.
func (s *ArticleService) ListTop(ctx context.Context) ([]model.Article, error) {
	articles, err := s.repo.ListTop(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing top articles: %w", err)
	}
	return articles, nil
}

// Search performs ranked full-text matching over title and intro. A blank
// query is equivalent to List; a query matching nothing returns an empty
// list, not an error.
func (s *ArticleService) Search(ctx context.Context, query string) ([]model.Article, error) {
	articles, err := s.repo.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("searching articles: %w", err)
	}
	return articles, nil
}

// GetImage returns an article's stored image bytes and MIME type.
func (s *ArticleService) GetImage(ctx context.Context, articleID string) (*model.Image, error) {
	if strings.TrimSpace(articleID) == "" {
		return nil, apperror.ValidationFailed("id", "article ID is required")
	}
	return s.repo.GetImage(ctx, articleID)
}

// Create validates and persists a new article and its optional image. The
// row and image are written in one transaction: a failed image insert
// leaves no article behind.
func (s *ArticleService) Create(ctx context.Context, input ArticleInput, image *ImageUpload) (*model.Article, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "article title is required")
	}

	topStory, err := parseFlag(input.TopStory)
	if err != nil {
		return nil, apperror.ValidationFailed("top_story", err.Error())
	}
	if err := validateImage(image, MaxImageBytes); err != nil {
		return nil, err
	}

	article := &model.Article{
		Title:    title,
		Intro:    s.sanitizer.Sanitize(strings.TrimSpace(input.Intro)),
		Content:  s.sanitizer.Sanitize(input.Content),
		ReadTime: strings.TrimSpace(input.ReadTime),
		Link:     strings.TrimSpace(input.Link),
		TopStory: topStory,
	}

	var img *model.Image
	if image != nil {
		img = &model.Image{Data: image.Data, MimeType: image.MimeType}
	}

	if err := s.repo.Create(ctx, article, img); err != nil {
		s.logger.Error("failed to create article",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating article: %w", err)
	}

	s.logger.Info("article created",
		slog.String("id", article.ID),
		slog.String("title", article.Title),
		slog.Bool("has_image", img != nil),
	)
	return article, nil
}

// ToggleTopStory flips the top-story flag in place and returns the updated
// article. Applying it twice restores the original value.
func (s *ArticleService) ToggleTopStory(ctx context.Context, id string) (*model.Article, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetTopStory(ctx, id, !article.TopStory); err != nil {
		return nil, fmt.Errorf("toggling top story %s: %w", id, err)
	}
	article.TopStory = !article.TopStory

	s.logger.Info("top story toggled",
		slog.String("id", id),
		slog.Bool("top_story", article.TopStory),
	)
	return article, nil
}

// Delete removes an article and, via the cascade, its image rows.
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.ValidationFailed("id", "article ID is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("article deleted", slog.String("id", id))
	return nil
}

// parseFlag coerces a form value into a bool: "true"/"false" literals, or
// empty for false. Anything else is rejected rather than silently treated
// as false.
func parseFlag(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "false":
		return false, nil
	case "true":
		return true, nil
	default:
		return false, fmt.Errorf("expected \"true\" or \"false\", got %q", v)
	}
}
