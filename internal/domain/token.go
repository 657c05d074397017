package domain

import "time"

// Platform identifies the kind of client a session was issued to.
type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformMobile  Platform = "mobile"
	PlatformDesktop Platform = "desktop"
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// ValidPlatform returns true if p is one of the known platforms.
func ValidPlatform(p Platform) bool {
	switch p {
	case PlatformWeb, PlatformMobile, PlatformDesktop, PlatformAndroid, PlatformIOS:
		return true
	}
	return false
}

// Issuance methods recorded on refresh tokens. Diagnostic only, never
// enforced.
const (
	MethodLogin   = "login"
	MethodRefresh = "refresh"
)

// RefreshToken is the server-side record of an opaque refresh token.
// Only the hash of the token string is stored. Each row is single-use:
// consumption soft-deletes it, whether or not the refresh succeeds.
type RefreshToken struct {
	Trackable
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"token_hash,omitempty"` // Stored hashed, filter from API responses
	ExpiresAt time.Time `json:"expires_at"`
	Platform  Platform  `json:"platform"`
	Method    string    `json:"method"`
}

// IsExpired returns true once the token's expiry has passed.
func (t *RefreshToken) IsExpired() bool {
	return !time.Now().Before(t.ExpiresAt)
}
