package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeRefresh marks long-lived tokens that can only be exchanged for a
// fresh access token, never used to call protected endpoints directly.
const TokenTypeRefresh = "refresh"

// SessionClaims is the JWT payload issued for authenticated sessions
type SessionClaims struct {
	jwt.RegisteredClaims
	UID       string `json:"uid,omitempty"`
	UserEmail string `json:"email,omitempty"`
	UserRole  string `json:"role,omitempty"`
	TokenType string `json:"typ,omitempty"`
}

// UserID returns the user ID, falling back to the subject claim
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Email returns the email claim
func (c *SessionClaims) Email() string {
	return c.UserEmail
}

// Role returns the global role
func (c *SessionClaims) Role() string {
	return c.UserRole
}

// IsRefresh reports whether the token is a refresh token
func (c *SessionClaims) IsRefresh() bool {
	return c.TokenType == TokenTypeRefresh
}

// HasRole checks if the user has a specific role
func (c *SessionClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (c *SessionClaims) IsAtLeast(minRole string) bool {
	return UserRole(c.UserRole).IsAtLeast(UserRole(minRole))
}

// CanManageUsers reports whether the role carried by the token is allowed to
// create and administer accounts.
func (c *SessionClaims) CanManageUsers() bool {
	return UserRole(c.UserRole).CanManageUsers()
}

// TokenID returns the jti claim
func (c *SessionClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedTime returns the issued at time
func (c *SessionClaims) IssuedTime() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
