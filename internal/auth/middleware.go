package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dating-api/internal/domain"
	"github.com/spec-kit/dating-api/internal/repository"
	apperrors "github.com/spec-kit/dating-api/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Username  string
	User      *domain.User
	ExpiresAt time.Time
}

// FailureRecorder receives the reason a token was rejected.
type FailureRecorder interface {
	RecordTokenValidationFailure(reason string)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	validator *Validator
	users     repository.UserRepository
	failures  FailureRecorder
}

// NewAuthMiddleware constructs middleware. failures may be nil.
func NewAuthMiddleware(validator *Validator, users repository.UserRepository, failures FailureRecorder) *AuthMiddleware {
	return &AuthMiddleware{validator: validator, users: users, failures: failures}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.validator.Validate(strings.TrimSpace(parts[1]))
	if err != nil {
		m.recordFailure(FailureReason(err))
		return apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.users.GetByUsername(c.UserContext(), claims.Username())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			m.recordFailure("unknown_user")
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}

	principal := &Principal{Username: user.UserName, User: user}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

func (m *AuthMiddleware) recordFailure(reason string) {
	if m.failures != nil {
		m.failures.RecordTokenValidationFailure(reason)
	}
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// RequireAuthenticated rejects requests that did not pass through Handle.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
