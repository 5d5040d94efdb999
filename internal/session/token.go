// Package session keeps the logged-in identity for one client process.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sudo-init-do/marketfront/internal/api"
)

var (
	ErrMissingToken   = errors.New("session: missing authorization header")
	ErrMalformedToken = errors.New("session: malformed token")
)

// Claims is the token payload the backend issues.
type Claims struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is who the stored token says the user is. It is decoded without
// verifying the signature: it only drives what the client shows, the backend
// re-validates the token on every call.
type Identity struct {
	Token     string
	UserID    int64
	Role      string
	ExpiresAt time.Time
}

func (i Identity) Auth() api.Auth { return api.Bearer(i.Token) }

func (i Identity) IsAdmin() bool { return i.Role == api.RoleAdmin }

func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Decode reads the identity out of a bearer token.
func Decode(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrMissingToken
	}
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if claims.UserID == 0 {
		return Identity{}, fmt.Errorf("%w: no userId claim", ErrMalformedToken)
	}
	id := Identity{Token: token, UserID: claims.UserID, Role: claims.Role}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// FromAuthorization decodes an "Authorization: Bearer <token>" header value.
func FromAuthorization(header string) (Identity, error) {
	if header == "" {
		return Identity{}, ErrMissingToken
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return Identity{}, ErrMalformedToken
	}
	return Decode(header[len(prefix):])
}
