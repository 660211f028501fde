package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/account-service/internal/domain"
)

// CredentialsRequest is the payload of register and login.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=5,bcryptmax"`
}

// Normalize trims and lowercases the email.
func (r *CredentialsRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

// ForgotRequest starts a password reset.
type ForgotRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// Normalize trims and lowercases the email.
func (r *ForgotRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

// ResetPasswordRequest consumes a reset token.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=5,bcryptmax"`
}

// UpdatePasswordRequest changes the acting user's password.
type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required,min=5,bcryptmax"`
	NewPassword string `json:"newPassword" validate:"required,min=5,bcryptmax"`
}

// PutAccountRequest carries optional account changes.
type PutAccountRequest struct {
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"omitempty,min=5,bcryptmax"`
}

// Normalize trims and lowercases the email.
func (r *PutAccountRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

// FindUserQuery is the query string of GET /users.
type FindUserQuery struct {
	Email string `query:"email" validate:"required,email"`
}

// Normalize trims and lowercases the email.
func (q *FindUserQuery) Normalize() {
	q.Email = NormalizeEmail(q.Email)
}

// NormalizeEmail canonicalises an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUserResponse maps a domain user; credential fields are never copied.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// AccountResponse is returned by GET /account.
type AccountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// RegisterResponse is returned by POST /register.
type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
