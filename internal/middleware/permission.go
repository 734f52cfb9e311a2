package middleware

import (
	"errors"

	"agora/internal/access"
	"agora/internal/models"
	"agora/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// Fiber locals written by the authentication handlers.
const (
	LocalUserID  = "userID"
	LocalIsAdmin = "isAdmin"
	LocalClaims  = "claims"
)

// RequestFromCtx describes the caller of c for the access predicates.
func RequestFromCtx(c *fiber.Ctx) access.Request {
	r := access.Request{Method: c.Method()}
	if uid, ok := c.Locals(LocalUserID).(uint); ok {
		r.UserID = uid
	}
	if admin, ok := c.Locals(LocalIsAdmin).(bool); ok {
		r.IsAdmin = admin
	}
	return r
}

// Guard rejects requests that fail the route-level predicates of policy.
// It runs before the handler loads anything, so an anonymous caller learns
// nothing about whether the target exists.
func Guard(policy access.Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := policy.Check(RequestFromCtx(c)); err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) {
				observability.PermissionDenials.WithLabelValues(appErr.Code).Inc()
				return models.RespondWithError(c, appErr.Status(), appErr)
			}
			return models.RespondWithError(c, fiber.StatusForbidden, err)
		}
		return c.Next()
	}
}
