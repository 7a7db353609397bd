package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and the account's public profile.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	IssuedAt  time.Time `json:"issued_at"`
	User      UserInfo  `json:"user"`
}

// JWTClaims represents the session token payload. Access grants are
// copied from the account at issuance; the token is stateless afterwards.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	Access []string `json:"access"`
	jwt.RegisteredClaims
}

// HasCapability reports whether the token carries the given access grant.
func (c *JWTClaims) HasCapability(cap Capability) bool {
	for _, a := range c.Access {
		if Capability(a) == cap {
			return true
		}
	}
	return false
}
