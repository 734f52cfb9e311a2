package server

import (
	"github.com/gofiber/fiber/v2"
)

// LikePost handles POST /posts/:id/like/
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	notification, err := s.likes.Like(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":         "Post liked.",
		"post_id":         id,
		"notification_id": notification.ID,
	})
}

// UnlikePost handles POST /posts/:id/unlike/
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.likes.Unlike(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Post unliked.",
		"post_id": id,
	})
}

// FollowUser handles POST /follow/:id/
func (s *Server) FollowUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	target, err := s.follows.Follow(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "You are now following " + target.Username + ".",
		"user":    target,
	})
}

// UnfollowUser handles POST /unfollow/:id/
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	target, err := s.follows.Unfollow(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "You have unfollowed " + target.Username + ".",
		"user":    target,
	})
}

// ListFollowers handles GET /users/:id/followers/
func (s *Server) ListFollowers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	users, err := s.follows.Followers(c.UserContext(), id, parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// ListFollowing handles GET /users/:id/following/
func (s *Server) ListFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	users, err := s.follows.Following(c.UserContext(), id, parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// Feed handles GET /feed/
func (s *Server) Feed(c *fiber.Ctx) error {
	posts, err := s.posts.Feed(c.UserContext(), currentUserID(c), parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}
