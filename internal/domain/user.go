package domain

import "time"

// User is the account record. PasswordHash and the reset fields are only
// populated by credential or full projections.
type User struct {
	ID                   string
	Email                string
	PasswordHash         string
	PasswordResetToken   *string
	PasswordResetExpires *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Public returns a copy stripped of credential material.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// HasActiveReset reports whether a reset token is set and still valid at now.
func (u *User) HasActiveReset(now time.Time) bool {
	return u.PasswordResetToken != nil && u.PasswordResetExpires != nil && now.Before(*u.PasswordResetExpires)
}
