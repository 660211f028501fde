package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserPublic_StripsSecrets(t *testing.T) {
	token := "abc"
	exp := time.Now().Add(time.Hour)
	u := &User{
		ID:                   "id-1",
		Email:                "a@b.io",
		PasswordHash:         "$2a$10$hash",
		PasswordResetToken:   &token,
		PasswordResetExpires: &exp,
	}

	pub := u.Public()
	assert.Equal(t, "id-1", pub.ID)
	assert.Equal(t, "a@b.io", pub.Email)
	assert.Empty(t, pub.PasswordHash)
	assert.Nil(t, pub.PasswordResetToken)
	assert.Nil(t, pub.PasswordResetExpires)
	assert.Equal(t, "$2a$10$hash", u.PasswordHash, "receiver must be untouched")
}

func TestUserHasActiveReset(t *testing.T) {
	now := time.Now()
	token := "abc"
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	assert.True(t, (&User{PasswordResetToken: &token, PasswordResetExpires: &future}).HasActiveReset(now))
	assert.False(t, (&User{PasswordResetToken: &token, PasswordResetExpires: &past}).HasActiveReset(now))
	assert.False(t, (&User{PasswordResetExpires: &future}).HasActiveReset(now))
	assert.False(t, (*User)(nil).Public() != nil)
}
