package api

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims carries the fields the client reads from an access token.
type tokenClaims struct {
	UserID    int64
	ExpiresAt *time.Time
}

// parseClaims reads sub and exp without verifying the signature.
func parseClaims(token string) (tokenClaims, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return tokenClaims{}, false
	}
	out := tokenClaims{}
	if id, err := strconv.ParseInt(claims.Subject, 10, 64); err == nil && id > 0 {
		out.UserID = id
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.UTC()
		out.ExpiresAt = &exp
	}
	return out, true
}
