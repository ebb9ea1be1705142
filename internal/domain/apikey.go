package domain

import "time"

// APIKey maps a bearer token (stored as a SHA-256 hash) to a user identity.
// Admin keys may manage documents; non-admin keys may only chat.
type APIKey struct {
	ID        string
	UserID    string
	KeyHash   string
	Admin     bool
	CreatedAt time.Time
}
