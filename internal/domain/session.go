package domain

import (
	"strings"
	"time"
)

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Session holds the bearer token and the user it was issued to.
type Session struct {
	Token     string
	User      User
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// Valid reports whether the session holds a token that has not expired at now.
func (s Session) Valid(now time.Time) bool {
	if strings.TrimSpace(s.Token) == "" {
		return false
	}
	if s.ExpiresAt != nil && !now.Before(*s.ExpiresAt) {
		return false
	}
	return true
}
