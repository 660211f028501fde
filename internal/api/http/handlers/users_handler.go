package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/service"
)

// UsersHandler exposes the unauthenticated account endpoints.
type UsersHandler struct {
	accounts *service.AccountService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(accountService *service.AccountService) *UsersHandler {
	return &UsersHandler{accounts: accountService}
}

// Register handles POST /register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.SignUp(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.RegisterResponse{
		Message: "Account created.",
		User:    dto.NewUserResponse(user),
	})
}

// Login handles POST /login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	session, err := h.accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.AuthResponse{
		Message:   "Success! You are logged in.",
		Token:     session.Token,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	})
}

// Forgot handles POST /forgot.
func (h *UsersHandler) Forgot(c *fiber.Ctx) error {
	var req dto.ForgotRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	if err := h.accounts.Forgot(c.UserContext(), req.Email); err != nil {
		return err
	}

	return c.JSON(dto.MessageResponse{
		Message: "An e-mail has been sent to " + req.Email + " with further instructions.",
	})
}

// ResetPassword handles PUT /account/password/:token.
func (h *UsersHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	if err := h.accounts.ResetPassword(c.UserContext(), c.Params("token"), req.Password); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
