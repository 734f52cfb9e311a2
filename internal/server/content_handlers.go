package server

import (
	"strconv"
	"strings"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /posts/?author=<id>&search=<text>&tag=<slug>
func (s *Server) ListPosts(c *fiber.Ctx) error {
	authorID, err := parseQueryID(c, "author")
	if err != nil {
		return nil
	}
	filter := repository.PostFilter{
		AuthorID: authorID,
		Search:   c.Query("search"),
		Tag:      c.Query("tag"),
	}
	posts, err := s.posts.List(c.UserContext(), filter, parsePagination(c), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// ListTaggedPosts handles GET /tags/:slug/
func (s *Server) ListTaggedPosts(c *fiber.Ctx) error {
	filter := repository.PostFilter{
		Search: c.Query("search"),
		Tag:    c.Params("slug"),
	}
	posts, err := s.posts.List(c.UserContext(), filter, parsePagination(c), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /posts/
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.PostInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	post, err := s.posts.Create(c.UserContext(), middleware.RequestFromCtx(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /posts/:id/
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.posts.Get(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles PUT and PATCH /posts/:id/
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.PostInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	post, err := s.posts.Update(c.UserContext(), middleware.RequestFromCtx(c), id, req, isPartial(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /posts/:id/
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.posts.Delete(c.UserContext(), middleware.RequestFromCtx(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListPostComments handles GET /posts/:id/comments/
func (s *Server) ListPostComments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.comments.List(c.UserContext(), id, parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// ListComments handles GET /comments/?post=<id>
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := parseQueryID(c, "post")
	if err != nil {
		return nil
	}
	comments, err := s.comments.List(c.UserContext(), postID, parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /comments/
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req service.CommentInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	comment, err := s.comments.Create(c.UserContext(), middleware.RequestFromCtx(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComment handles GET /comments/:id/
func (s *Server) GetComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comment, err := s.comments.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// UpdateComment handles PUT and PATCH /comments/:id/
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.CommentInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	comment, err := s.comments.Update(c.UserContext(), middleware.RequestFromCtx(c), id, req, isPartial(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /comments/:id/
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.comments.Delete(c.UserContext(), middleware.RequestFromCtx(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListBooks handles GET /books/?search=&author=&year=&ordering=
func (s *Server) ListBooks(c *fiber.Ctx) error {
	filter := repository.BookFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Author:   strings.TrimSpace(c.Query("author")),
		Ordering: c.Query("ordering"),
	}
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return respondError(c, models.NewFieldValidationError(map[string][]string{
				"year": {"A valid integer is required."},
			}))
		}
		filter.Year = year
	}

	books, err := s.books.List(c.UserContext(), filter, parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(books)
}

// CreateBook handles POST /books/
func (s *Server) CreateBook(c *fiber.Ctx) error {
	var req service.BookInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	book, err := s.books.Create(c.UserContext(), middleware.RequestFromCtx(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(book)
}

// GetBook handles GET /books/:id/
func (s *Server) GetBook(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	book, err := s.books.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(book)
}

// UpdateBook handles PUT and PATCH /books/:id/
func (s *Server) UpdateBook(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.BookInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	book, err := s.books.Update(c.UserContext(), middleware.RequestFromCtx(c), id, req, isPartial(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(book)
}

// DeleteBook handles DELETE /books/:id/
func (s *Server) DeleteBook(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.books.Delete(c.UserContext(), middleware.RequestFromCtx(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
