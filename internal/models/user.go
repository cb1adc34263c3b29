package models

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
}

// Session is the client-held proof of authentication. User is set if and
// only if AccessToken is set.
type Session struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
	User         *User  `json:"user"`
}

var ErrIncompleteSession = errors.New("session requires both an access token and a user")

func (s *Session) Validate() error {
	if s == nil || s.AccessToken == "" || s.User == nil {
		return ErrIncompleteSession
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate the holder's state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return &out
}

// AccessExpiry reads the exp claim of a JWT access token without verifying
// its signature. It is informational only; ok is false for opaque tokens.
func (s *Session) AccessExpiry() (time.Time, bool) {
	if s == nil || s.AccessToken == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
