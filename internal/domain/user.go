// Package domain holds the entities of the minutes server.
package domain

import "time"

// User is a registered account. Username and email are unique and compared
// case-sensitively.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal returns the authenticated identity for this user.
func (u *User) Principal() Principal {
	return Principal{UserID: u.ID, Username: u.Username}
}

// Principal is the authenticated identity attached to a request. Ownership
// checks compare UserID only.
type Principal struct {
	UserID    string
	Username  string
	SessionID string
}

// IsZero reports whether p carries no identity.
func (p Principal) IsZero() bool {
	return p.UserID == ""
}
