package server

import (
	"log/slog"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// authenticate verifies the caller's token and records the identity in
// locals and the user context.
func (s *Server) authenticate(c *fiber.Ctx, allowQuery bool) error {
	token, err := middleware.ExtractToken(c, allowQuery)
	if err != nil {
		return models.NewUnauthorizedError(err.Error())
	}
	claims, err := s.tokens.Parse(c.UserContext(), token)
	if err != nil {
		return models.NewUnauthorizedError(err.Error())
	}

	user, err := s.userRepo.GetByID(c.UserContext(), claims.UserID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewUnauthorizedError("User not found")
		}
		return err
	}

	c.Locals(middleware.LocalUserID, user.ID)
	c.Locals(middleware.LocalIsAdmin, user.IsAdmin)
	c.Locals(middleware.LocalClaims, claims)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))
	return nil
}

// OptionalAuth identifies the caller when an Authorization header is sent.
// A header that does not verify is rejected rather than treated as anonymous.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		if err := s.authenticate(c, false); err != nil {
			return respondError(c, err)
		}
		return c.Next()
	}
}

// AuthRequired rejects requests without a valid token, header or ?token=.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals(middleware.LocalUserID).(uint); ok {
			return c.Next()
		}
		if err := s.authenticate(c, true); err != nil {
			return respondError(c, err)
		}
		return c.Next()
	}
}

// Register handles POST /register/
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	res, err := s.accounts.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Login handles POST /login/
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	res, err := s.accounts.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// Logout handles POST /logout/ by revoking the presented token.
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals(middleware.LocalClaims).(*middleware.Claims)
	if err := s.tokens.Revoke(c.UserContext(), claims); err != nil {
		// Without Redis the token stays valid until it expires.
		middleware.Logger.WarnContext(c.UserContext(), "token revocation failed", slog.String("error", err.Error()))
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}
