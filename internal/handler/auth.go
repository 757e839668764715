package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harplab/site-api/internal/apperror"
	"github.com/harplab/site-api/internal/auth"
	"github.com/harplab/site-api/internal/service"
)

// oauthStateCookie stores the anti-CSRF state between the redirect to
// Google and the callback.
const oauthStateCookie = "oauth_state"

// AuthHandler serves registration, login, password reset, and the Google
// OAuth flow. google may be nil, in which case the Google routes are not
// registered.
type AuthHandler struct {
	service     *service.AuthService
	google      *auth.GoogleProvider
	frontendURL string
	logger      *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, google *auth.GoogleProvider, frontendURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:     svc,
		google:      google,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// authResponse is the login payload: token plus the public user record.
type authResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// HandleRegister creates a password account. POST /api/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeData(w, http.StatusCreated, user)
}

// HandleLogin verifies credentials and returns a bearer token.
// POST /api/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeData(w, http.StatusOK, authResponse{Token: result.Token, User: result.User})
}

// HandleForgotPassword issues a reset token and returns the reset link.
// The link would normally go out by email; returning it in the response
// matches the current frontend, which shows it to the user directly.
// POST /api/auth/forgot-password.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	link, err := h.service.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeData(w, http.StatusOK, map[string]string{"reset_link": link})
}

// HandleResetPassword redeems a reset token from the URL path.
// POST /api/auth/reset-password/{token}.
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), token, req.Password); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeMessage(w, http.StatusOK, "password has been reset")
}

// HandleMe returns the authenticated user's public record.
// GET /api/auth/me (behind RequireAuth).
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}
	writeData(w, http.StatusOK, user.Public())
}

// HandleLogout acknowledges a logout. Bearer tokens are stateless, so the
// client discards the token; the server has nothing to invalidate.
// GET /api/auth/logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "logged out")
}

// HandleGoogleLogin starts the OAuth flow: set a state cookie and redirect
// to Google's consent page. GET /api/auth/google.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the OAuth flow. On success the browser is
// redirected to the frontend's login page with the token and user record in
// the query string; on failure it is redirected there with an error code so
// the frontend can show a message.
// GET /api/auth/google/callback.
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		h.redirectLoginError(w, r, "invalid_state")
		return
	}

	// Clear the state cookie; it is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectLoginError(w, r, "missing_code")
		return
	}

	profile, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("google code exchange failed", slog.String("error", err.Error()))
		h.redirectLoginError(w, r, "exchange_failed")
		return
	}

	result, err := h.service.LoginWithGoogle(r.Context(), profile)
	if err != nil {
		h.logger.Error("google login failed",
			slog.String("email", profile.Email),
			slog.String("error", err.Error()),
		)
		h.redirectLoginError(w, r, "login_failed")
		return
	}

	userJSON, err := json.Marshal(result.User)
	if err != nil {
		h.redirectLoginError(w, r, "login_failed")
		return
	}

	q := url.Values{}
	q.Set("token", result.Token)
	q.Set("user", string(userJSON))
	http.Redirect(w, r, h.frontendURL+"/login?"+q.Encode(), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) redirectLoginError(w http.ResponseWriter, r *http.Request, code string) {
	q := url.Values{}
	q.Set("error", code)
	http.Redirect(w, r, h.frontendURL+"/login?"+q.Encode(), http.StatusTemporaryRedirect)
}
