package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"agora/internal/access"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	policy := access.NewPolicy(access.IsAuthenticatedOrReadOnly{})

	newApp := func(userID uint) *fiber.App {
		app := fiber.New()
		app.Use(func(c *fiber.Ctx) error {
			if userID != 0 {
				c.Locals(LocalUserID, userID)
			}
			return c.Next()
		})
		app.All("/posts", Guard(policy), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})
		return app
	}

	tests := []struct {
		name   string
		method string
		userID uint
		status int
	}{
		{"anonymous read", http.MethodGet, 0, http.StatusOK},
		{"anonymous write", http.MethodPost, 0, http.StatusUnauthorized},
		{"anonymous delete", http.MethodDelete, 0, http.StatusUnauthorized},
		{"authenticated write", http.MethodPost, 5, http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			resp, err := newApp(tt.userID).Test(httptest.NewRequest(tt.method, "/posts", nil))
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestGuard_AdminForbidden(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, uint(9))
		c.Locals(LocalIsAdmin, false)
		return c.Next()
	})
	app.Get("/admin", Guard(access.NewPolicy(access.IsAdmin{})), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRequestFromCtx(t *testing.T) {
	app := fiber.New()
	var got access.Request
	app.Patch("/", func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, uint(3))
		c.Locals(LocalIsAdmin, true)
		got = RequestFromCtx(c)
		return nil
	})

	_, err := app.Test(httptest.NewRequest(http.MethodPatch, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, access.Request{Method: http.MethodPatch, UserID: 3, IsAdmin: true}, got)
}
