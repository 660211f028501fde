package domain

import "time"

// Session is the bearer credential handed out after a successful login.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}
