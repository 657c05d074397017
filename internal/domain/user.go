package domain

// User represents a registered account.
//
// Username and email are unique across live users. A user with Active set to
// false keeps their data but cannot authenticate or refresh a session.
type User struct {
	Trackable
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone,omitempty"`
	PasswordHash string   `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	Roles        []string `json:"roles"`
	Active       bool     `json:"active"`
}

// CanAuthenticate returns true if the user may log in or refresh a session.
func (u *User) CanAuthenticate() bool {
	return u.Active && !u.IsDeleted()
}

// HasRole returns true if the user holds the named role.
// Role names compare case-insensitively.
func (u *User) HasRole(role string) bool {
	return IsInRoles(u.Roles, role)
}
