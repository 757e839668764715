// Package auth provides JWT issuance/validation, bcrypt password hashing,
// reset-token generation, and the Google OAuth provider.
//
// The credential scheme is a stateless bearer token: login issues a signed
// HS256 JWT carrying the user's email, name, and admin flag, and every
// authenticated request presents it in the Authorization header. The server
// keeps no session state — validation needs only the signing secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "harplab-site-api"

// TokenTTL is how long an issued access token stays valid. After expiry the
// client must log in again.
const TokenTTL = 24 * time.Hour

// Identity is the payload carried inside an access token. The email is the
// subject; the name and admin flag ride along so clients can render without
// an extra round trip. The server-side admin check still consults the
// database, so revoking admin takes effect before the token expires.
type Identity struct {
	Email    string
	FullName string
	IsAdmin  bool
}

// TokenService signs and verifies access tokens with a shared HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; anything shorter is refused outright rather than silently
// weakening every token.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: TokenTTL}, nil
}

type claims struct {
	FullName string `json:"full_name"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Generate signs a new access token for the given identity.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.generate(id, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. Used by tests
// to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(id Identity, d time.Duration) (string, error) {
	return s.generate(id, d)
}

func (s *TokenService) generate(id Identity, d time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		FullName: id.FullName,
		IsAdmin:  id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token string and returns the identity it
// encodes. Expired, garbled, or wrongly-signed tokens all come back as plain
// errors — callers normalize every failure to "not authenticated".
//
// jwt.WithValidMethods pins the algorithm to HS256 so a token claiming
// alg=none (or an asymmetric algorithm) is rejected before signature
// verification runs.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, errors.New("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Identity{}, errors.New("auth: token has no subject")
	}

	return Identity{
		Email:    c.Subject,
		FullName: c.FullName,
		IsAdmin:  c.IsAdmin,
	}, nil
}
