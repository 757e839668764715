package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harplab/site-api/internal/apperror"
	"github.com/harplab/site-api/internal/model"
)

// fakeUserSource resolves emails from a fixed map.
type fakeUserSource struct {
	users map[string]*model.User
}

func (f *fakeUserSource) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	return u, nil
}

func authStack(t *testing.T, users map[string]*model.User) (*TokenService, http.Handler) {
	t.Helper()
	ts := newTestTokenService(t)

	// The inner handler records the context user so tests can assert on it.
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			t.Error("no user in context inside protected handler")
			return
		}
		w.Write([]byte(user.Email))
	})

	return ts, RequireAuth(ts, &fakeUserSource{users: users})(inner)
}

func TestRequireAuth_ValidToken(t *testing.T) {
	users := map[string]*model.User{
		"ada@example.org": {Email: "ada@example.org", IsActive: true},
	}
	ts, h := authStack(t, users)

	token, err := ts.Generate(Identity{Email: "ada@example.org"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "ada@example.org" {
		t.Errorf("context user = %q, want ada@example.org", rr.Body.String())
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	users := map[string]*model.User{
		"ada@example.org":      {Email: "ada@example.org", IsActive: true},
		"inactive@example.org": {Email: "inactive@example.org", IsActive: false},
	}
	ts, h := authStack(t, users)

	expired, err := ts.GenerateWithDuration(Identity{Email: "ada@example.org"}, -1)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}
	unknown, err := ts.Generate(Identity{Email: "ghost@example.org"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	inactive, err := ts.Generate(Identity{Email: "inactive@example.org"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired token", "Bearer " + expired},
		{"unknown subject", "Bearer " + unknown},
		{"inactive account", "Bearer " + inactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rr.Code)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireAdmin(inner)

	t.Run("admin passes", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), userKey,
			&model.User{Email: "root@example.org", IsAdmin: true})
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), userKey,
			&model.User{Email: "user@example.org", IsAdmin: false})
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rr.Code)
		}
	})

	t.Run("no context user forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rr.Code)
		}
	})
}

func TestNewResetToken(t *testing.T) {
	t1, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken() error = %v", err)
	}
	t2, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken() error = %v", err)
	}

	if len(t1) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(t1))
	}
	if t1 == t2 {
		t.Error("two tokens should never match")
	}
}
