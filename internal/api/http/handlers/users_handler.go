package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dating-api/internal/api/dto"
	"github.com/spec-kit/dating-api/internal/service"
)

// UsersHandler lists and looks up members.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMemberList(users)})
}

// Get handles GET /api/users/:username.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.GetByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMemberResponse(*user)})
}
