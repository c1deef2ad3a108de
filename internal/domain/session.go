package domain

import "time"

// Session is a server-side login record. Deleting the row revokes every
// token that references it.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Remember  bool      `json:"remember"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session is no longer valid at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
