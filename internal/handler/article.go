package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harplab/site-api/internal/service"
)

// ArticleHandler serves the article routes: public reads and search, admin
// writes.
type ArticleHandler struct {
	service *service.ArticleService
	logger  *slog.Logger
}

func NewArticleHandler(svc *service.ArticleService, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{service: svc, logger: logger}
}

// HandleList returns all articles, newest first. GET /api/articles.
func (h *ArticleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, articles)
}

// HandleSearch returns ranked full-text matches for ?query=.
// GET /api/articles/search.
func (h *ArticleHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, articles)
}

// HandleListTop returns the top-story articles. GET /api/articles/top.
func (h *ArticleHandler) HandleListTop(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.ListTop(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, articles)
}

// HandleImage streams an article's image bytes with its stored MIME type.
// Binary endpoints bypass the JSON envelope. GET /api/articles/{id}/image.
func (h *ArticleHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.service.GetImage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(img.Data)
}

// HandleCreate creates an article from a multipart form with an optional
// image file. POST /api/admin/articles (admin).
func (h *ArticleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		writeError(w, h.logger, err)
		return
	}

	image, err := readImageFile(r, "image")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	input := service.ArticleInput{
		Title:    r.FormValue("title"),
		Intro:    r.FormValue("intro"),
		Content:  r.FormValue("content"),
		ReadTime: r.FormValue("read_time"),
		Link:     r.FormValue("link"),
		TopStory: r.FormValue("top_story"),
	}

	article, err := h.service.Create(r.Context(), input, image)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeData(w, http.StatusCreated, article)
}

// HandleToggleTopStory flips the top-story flag and returns the updated
// article. PATCH /api/admin/articles/{id}/top-story (admin).
func (h *ArticleHandler) HandleToggleTopStory(w http.ResponseWriter, r *http.Request) {
	article, err := h.service.ToggleTopStory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, article)
}

// HandleDelete removes an article and its image.
// DELETE /api/admin/articles/{id} (admin).
func (h *ArticleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "article deleted")
}
