package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dating-api/internal/api/dto"
	"github.com/spec-kit/dating-api/internal/auth"
	"github.com/spec-kit/dating-api/internal/service"
	apperrors "github.com/spec-kit/dating-api/pkg/util/errorutil"
)

// AccountHandler exposes register, login and the caller's own profile.
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler constructs handler.
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Register handles POST /api/account/register.
func (h *AccountHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, issued, err := h.accounts.Register(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.AccountResponse{Username: user.UserName, Token: issued.Token, ExpiresAt: issued.ExpiresAt},
	})
}

// Login handles POST /api/account/login.
func (h *AccountHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, issued, err := h.accounts.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.AccountResponse{Username: user.UserName, Token: issued.Token, ExpiresAt: issued.ExpiresAt},
	})
}

// Me handles GET /api/account/me.
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user":             dto.NewMemberResponse(*principal.User),
			"token_expires_at": principal.ExpiresAt,
		},
	})
}
