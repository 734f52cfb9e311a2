package server

import (
	"io"

	"agora/internal/models"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListUsers handles GET /users/
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.accounts.ListUsers(c.UserContext(), parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetUser handles GET /users/:id/
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.accounts.GetUser(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetProfile handles GET /profile/
func (s *Server) GetProfile(c *fiber.Ctx) error {
	user, err := s.accounts.GetUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateProfile handles PATCH /profile/
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req service.ProfileInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	user, err := s.accounts.UpdateProfile(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UploadAvatar handles POST /profile/avatar/ with a multipart "image" field.
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return respondError(c, models.NewFieldValidationError(map[string][]string{
			"image": {"No file was submitted."},
		}))
	}
	if fileHeader.Size > s.avatars.MaxBytes() {
		return respondError(c, models.NewFieldValidationError(map[string][]string{
			"image": {"File too large."},
		}))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, s.avatars.MaxBytes()+1))
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	user, err := s.avatars.Upload(c.UserContext(), currentUserID(c), content)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ListNotifications handles GET /notifications/
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	page := parsePagination(c)
	items, total, err := s.notifications.List(c.UserContext(), currentUserID(c), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"count":   total,
		"results": items,
		"limit":   page.Limit,
		"offset":  page.Offset,
	})
}
