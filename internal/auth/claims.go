package auth

import (
	"time"

	"github.com/thebooksapp/thebooks-server/internal/domain"
)

// AccessClaims represents the claims stored in a PASETO access token.
// These are encrypted in v4.local tokens, so they're not readable without the key.
type AccessClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Phone    string   `json:"phone,omitempty"`
	Roles    []string `json:"roles,omitempty"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// HasRole returns true if the claims carry the named role.
func (c *AccessClaims) HasRole(role string) bool {
	return domain.IsInRoles(c.Roles, role)
}

// InRoles checks the claims against a required-roles expression.
func (c *AccessClaims) InRoles(requiredExpr string) bool {
	return domain.IsInRoles(c.Roles, requiredExpr)
}
