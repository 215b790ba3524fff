package models

import "time"

// Session binds a hashed session token to a user until ExpiresAt.
type Session struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
