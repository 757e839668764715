package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harplab/site-api/internal/service"
)

// TeamHandler serves the team roster routes.
type TeamHandler struct {
	service *service.TeamService
	logger  *slog.Logger
}

func NewTeamHandler(svc *service.TeamService, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{service: svc, logger: logger}
}

// HandleList returns the roster in display order, optionally filtered by
// ?semester= or ?memberType=. Unrecognized filter values are a 400.
// GET /api/team.
func (h *TeamHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.List(r.Context(),
		r.URL.Query().Get("semester"),
		r.URL.Query().Get("memberType"),
	)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, members)
}

// HandleGet returns one roster entry. GET /api/team/{id}.
func (h *TeamHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	member, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, member)
}

// HandleImage streams a member's portrait. GET /api/team/{id}/image.
func (h *TeamHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
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

// HandleCreate adds a roster entry from a multipart form with an optional
// portrait. POST /api/admin/team (admin).
func (h *TeamHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		writeError(w, h.logger, err)
		return
	}

	image, err := readImageFile(r, "image")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	member, err := h.service.Create(r.Context(), teamInput(r), image)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeData(w, http.StatusCreated, member)
}

// HandleUpdate replaces a roster entry; a new portrait in the form swaps
// the stored one. PUT /api/admin/team/{id} (admin).
func (h *TeamHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		writeError(w, h.logger, err)
		return
	}

	image, err := readImageFile(r, "image")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	member, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), teamInput(r), image)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeData(w, http.StatusOK, member)
}

// HandleDelete removes a roster entry and their portrait.
// DELETE /api/admin/team/{id} (admin).
func (h *TeamHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "team member deleted")
}

func teamInput(r *http.Request) service.TeamMemberInput {
	return service.TeamMemberInput{
		Name:        r.FormValue("name"),
		Role:        r.FormValue("role"),
		GitHubURL:   r.FormValue("github_url"),
		LinkedInURL: r.FormValue("linkedin_url"),
		Semester:    r.FormValue("semester"),
		MemberType:  r.FormValue("member_type"),
		Founder:     r.FormValue("founder"),
	}
}
