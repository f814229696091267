package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"docflow/internal/auth"
	"docflow/internal/model"
)

// IdentityLocalKey is the Fiber locals key holding the verified model.Identity.
const IdentityLocalKey = "identity"

// Auth requires a valid bearer token and stores the caller identity in locals.
// Failures are handed to the app error handler as UnauthorizedError.
func Auth(v auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return &model.UnauthorizedError{Message: "missing bearer token"}
		}

		id, err := v.Verify(c.UserContext(), strings.TrimSpace(token))
		if err != nil {
			return err
		}
		c.Locals(IdentityLocalKey, id)
		return c.Next()
	}
}

// IdentityFrom returns the caller stored by Auth.
func IdentityFrom(c *fiber.Ctx) (model.Identity, bool) {
	id, ok := c.Locals(IdentityLocalKey).(model.Identity)
	return id, ok
}

// RequireRole rejects callers whose role is not one of roles.
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return &model.UnauthorizedError{}
		}
		for _, r := range roles {
			if id.Role == r {
				return c.Next()
			}
		}
		return model.NewForbiddenError("role %q may not access this resource", id.Role)
	}
}
