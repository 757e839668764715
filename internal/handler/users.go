package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harplab/site-api/internal/apperror"
	"github.com/harplab/site-api/internal/auth"
	"github.com/harplab/site-api/internal/service"
)

// UserHandler serves the admin user-management routes.
type UserHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

func NewUserHandler(svc *service.AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

// HandleList returns every account's public record.
// GET /api/admin/users (admin).
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, users)
}

// HandleToggleAdmin flips another user's admin flag and returns the updated
// record. Toggling your own account is forbidden.
// PUT /api/admin/users/{email}/toggle-admin (admin).
func (h *UserHandler) HandleToggleAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.service.ToggleAdmin(r.Context(), actor, chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, user)
}
