// Package session derives the signed-in owner from the API bearer token.
//
// The client never holds the signing key, so tokens are decoded without
// verification; the server remains the authority on validity.
package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoOwner      = errors.New("token carries no user id")
	ErrTokenExpired = errors.New("token expired")
)

// Session is a decoded bearer token.
type Session struct {
	Token     string
	OwnerID   string
	ExpiresAt time.Time
}

// ownerClaims are tried in order after the standard subject.
var ownerClaims = []string{"userId", "user_id", "UserID", "id"}

// Parse decodes token and extracts the owner id.
func Parse(token string) (Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Session{}, fmt.Errorf("parse token: %w", err)
	}

	s := Session{Token: token}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		s.OwnerID = sub
		return s, nil
	}
	for _, name := range ownerClaims {
		if v, ok := claims[name].(string); ok && v != "" {
			s.OwnerID = v
			return s, nil
		}
	}
	return Session{}, ErrNoOwner
}

// Load reads a token from path and parses it.
func Load(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Session{}, fmt.Errorf("read token: %w", err)
	}
	return Parse(string(data))
}

// Expired reports whether the token's exp claim lies before now. Tokens
// without exp never expire.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Check returns ErrTokenExpired for an expired session.
func (s Session) Check(now time.Time) error {
	if s.Expired(now) {
		return fmt.Errorf("%w at %s", ErrTokenExpired, s.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}
