package handler

import (
	"log/slog"
	"net/http"

	"github.com/harplab/site-api/internal/apperror"
	"github.com/harplab/site-api/internal/auth"
	"github.com/harplab/site-api/internal/service"
)

// ProfileHandler serves profile picture uploads. service may be nil when
// object storage is not configured; the route then answers 503.
type ProfileHandler struct {
	service *service.ProfileService
	logger  *slog.Logger
}

func NewProfileHandler(svc *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{service: svc, logger: logger}
}

// HandleUpload stores a new profile picture for the authenticated user and
// returns its URL. POST /api/profile/upload (authenticated).
func (h *ProfileHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, envelope{
			Success: false,
			Error:   "profile picture storage is not configured",
		})
		return
	}

	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}

	if err := parseMultipart(r); err != nil {
		writeError(w, h.logger, err)
		return
	}

	upload, err := readImageFile(r, "image")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if upload == nil {
		writeError(w, h.logger, apperror.ValidationFailed("image", "an image file is required"))
		return
	}

	url, err := h.service.UploadPicture(r.Context(), user, upload)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeData(w, http.StatusOK, map[string]string{"profile_picture": url})
}
