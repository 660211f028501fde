package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// AccountHandler exposes endpoints acting on the authenticated user.
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler constructs handler.
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accountService}
}

// GetAccount handles GET /account.
func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	principal, err := actingUser(c)
	if err != nil {
		return err
	}
	user, err := h.accounts.GetAccount(c.UserContext(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.AccountResponse{ID: user.ID, Email: user.Email})
}

// PutAccount handles PUT /account.
func (h *AccountHandler) PutAccount(c *fiber.Ctx) error {
	principal, err := actingUser(c)
	if err != nil {
		return err
	}
	var req dto.PutAccountRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	var changes service.AccountChanges
	if req.Email != "" {
		changes.Email = &req.Email
	}
	if req.Password != "" {
		changes.Password = &req.Password
	}
	if err := h.accounts.PutAccount(c.UserContext(), principal.ID, changes); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteAccount handles DELETE /account.
func (h *AccountHandler) DeleteAccount(c *fiber.Ctx) error {
	principal, err := actingUser(c)
	if err != nil {
		return err
	}
	if err := h.accounts.DeleteAccount(c.UserContext(), principal.ID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UpdatePassword handles PUT /account/password.
func (h *AccountHandler) UpdatePassword(c *fiber.Ctx) error {
	principal, err := actingUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePasswordRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if err := h.accounts.UpdatePassword(c.UserContext(), principal.ID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetProfile handles GET /profile.
func (h *AccountHandler) GetProfile(c *fiber.Ctx) error {
	principal, err := actingUser(c)
	if err != nil {
		return err
	}
	user, err := h.accounts.GetProfile(c.UserContext(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// GetUser handles GET /users/:id.
func (h *AccountHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.accounts.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// FindUser handles GET /users?email=.
func (h *AccountHandler) FindUser(c *fiber.Ctx) error {
	var query dto.FindUserQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}
	user, err := h.accounts.FindMemberWithMail(c.UserContext(), query.Email)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

func actingUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return user, nil
}
