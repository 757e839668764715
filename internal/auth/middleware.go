package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/harplab/site-api/internal/model"
)

var errNoCredential = errors.New("auth: no credential presented")

// contextKey is unexported so only this package can read or write the
// current-user value; other packages go through UserFromContext.
type contextKey string

const userKey contextKey = "currentUser"

// UserSource is the minimal lookup the middleware needs. Satisfied by
// repository.UserRepository.
type UserSource interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// writeUnauthorized emits the standard error envelope without importing the
// handler package (which would create an import cycle).
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"error":"` + message + `"}`))
}

// RequireAuth enforces bearer-token authentication.
//
// It reads "Authorization: Bearer <jwt>", validates the signature and
// expiry, then loads the user row for the token's subject. Loading from the
// database (instead of trusting the token's embedded admin flag) means an
// admin toggle takes effect on the next request, not at token expiry.
// Missing, malformed, expired, and unknown-subject tokens all produce the
// same 401.
func RequireAuth(tokens *TokenService, users UserSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := currentUser(r, tokens, users)
			if err != nil {
				writeUnauthorized(w, "valid authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates mutation routes. It must run inside RequireAuth; a
// request that reaches it without a context user is treated as forbidden,
// never allowed through.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || !user.IsAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"success":false,"error":"admin access required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext returns the authenticated user set by RequireAuth.
// The second return is false for anonymous requests.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// currentUser extracts and verifies the bearer token, then resolves it to a
// live user row. Inactive accounts fail authentication even with a valid
// token.
func currentUser(r *http.Request, tokens *TokenService, users UserSource) (*model.User, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return nil, errNoCredential
	}

	id, err := tokens.Validate(strings.TrimPrefix(header, prefix))
	if err != nil {
		return nil, err
	}

	user, err := users.GetByEmail(r.Context(), id.Email)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errNoCredential
	}
	return user, nil
}
