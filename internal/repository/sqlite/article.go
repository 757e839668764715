package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/harplab/site-api/internal/apperror"
	"github.com/harplab/site-api/internal/model"
	"github.com/harplab/site-api/internal/repository"
)

// compile-time check that *ArticleStore implements repository.ArticleRepository
var _ repository.ArticleRepository = (*ArticleStore)(nil)

const articleColumns = `id, title, intro, content, read_time, link, published_at, top_story`

// Create inserts an article and, when image is non-nil, its image row inside
// one transaction. If either insert fails the whole operation rolls back and
// no article row is visible afterwards.
func (s *ArticleStore) Create(ctx context.Context, article *model.Article, image *model.Image) error {
	if article.ID == "" {
		article.ID = xid.New().String()
	}
	if article.PublishedAt.IsZero() {
		article.PublishedAt = time.Now().UTC()
	}

	return inTx(ctx, s.conn, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO articles (id, title, intro, content, read_time, link, published_at, top_story)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			article.ID,
			article.Title,
			article.Intro,
			article.Content,
			article.ReadTime,
			article.Link,
			article.PublishedAt,
			article.TopStory,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting article: %w", err)
		}

		if image != nil {
			if err := insertImage(ctx, tx, "article_images", "article_id", article.ID, image); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns all articles, most recent first.
func (s *ArticleStore) List(ctx context.Context) ([]model.Article, error) {
	return s.queryArticles(ctx,
		`SELECT `+articleColumns+` FROM articles ORDER BY published_at DESC`)
}

// ListTop returns articles flagged as top stories, most recent first.
func (s *ArticleStore) ListTop(ctx context.Context) ([]model.Article, error) {
	return s.queryArticles(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE top_story = 1 ORDER BY published_at DESC`)
}

// Search runs a ranked full-text match against the FTS5 index. bm25 returns
// lower scores for better matches, so ranking sorts ascending with
// published_at as the tie-break. A query with no matches returns an empty
// slice, not an error.
func (s *ArticleStore) Search(ctx context.Context, query string) ([]model.Article, error) {
	match := ftsMatchExpr(query)
	if match == "" {
		return s.List(ctx)
	}

	return s.queryArticles(ctx,
		`SELECT a.id, a.title, a.intro, a.content, a.read_time, a.link, a.published_at, a.top_story
		 FROM articles a
		 JOIN articles_fts f ON f.rowid = a.rowid
		 WHERE articles_fts MATCH ?
		 ORDER BY bm25(articles_fts) ASC, a.published_at DESC`,
		match)
}

// ftsMatchExpr turns free-form user input into a safe FTS5 MATCH
// expression: each whitespace-separated term becomes a quoted phrase token,
// joined by implicit AND. Quoting prevents user input from being parsed as
// FTS query syntax (NEAR, ^, *, unbalanced quotes).
func ftsMatchExpr(query string) string {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

// GetByID retrieves a single article.
func (s *ArticleStore) GetByID(ctx context.Context, id string) (*model.Article, error) {
	var a model.Article
	err := s.conn.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = ?`, id,
	).Scan(&a.ID, &a.Title, &a.Intro, &a.Content, &a.ReadTime, &a.Link, &a.PublishedAt, &a.TopStory)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("article", id)
		}
		return nil, fmt.Errorf("sqlite: getting article %s: %w", id, err)
	}
	return &a, nil
}

// GetImage returns the newest image attached to an article. The schema
// permits several rows per article but only the latest is ever served.
func (s *ArticleStore) GetImage(ctx context.Context, articleID string) (*model.Image, error) {
	var img model.Image
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, article_id, data, mime_type, uploaded_at
		 FROM article_images WHERE article_id = ?
		 ORDER BY uploaded_at DESC LIMIT 1`,
		articleID,
	).Scan(&img.ID, &img.OwnerID, &img.Data, &img.MimeType, &img.UploadedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("article image", articleID)
		}
		return nil, fmt.Errorf("sqlite: getting article image %s: %w", articleID, err)
	}
	return &img, nil
}

// SetTopStory writes the top-story flag in place.
func (s *ArticleStore) SetTopStory(ctx context.Context, id string, topStory bool) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE articles SET top_story = ? WHERE id = ?`, topStory, id)
	if err != nil {
		return fmt.Errorf("sqlite: updating article %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("article", id)
	}
	return nil
}

// Delete removes an article; its image rows go with it via the cascade on
// article_images.article_id.
func (s *ArticleStore) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting article %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("article", id)
	}
	return nil
}

func (s *ArticleStore) queryArticles(ctx context.Context, query string, args ...any) ([]model.Article, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying articles: %w", err)
	}
	defer rows.Close()

	articles := []model.Article{}
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Intro, &a.Content, &a.ReadTime,
			&a.Link, &a.PublishedAt, &a.TopStory); err != nil {
			return nil, fmt.Errorf("sqlite: scanning article row: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// insertImage writes an image row within the caller's transaction. Shared by
// the article and team-member create/update paths.
func insertImage(ctx context.Context, tx *sql.Tx, table, ownerColumn, ownerID string, image *model.Image) error {
	if image.ID == "" {
		image.ID = xid.New().String()
	}
	if image.UploadedAt.IsZero() {
		image.UploadedAt = time.Now().UTC()
	}
	image.OwnerID = ownerID

	_, err := tx.ExecContext(ctx,
		`INSERT INTO `+table+` (id, `+ownerColumn+`, data, mime_type, uploaded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		image.ID, ownerID, image.Data, image.MimeType, image.UploadedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting image into %s: %w", table, err)
	}
	return nil
}
