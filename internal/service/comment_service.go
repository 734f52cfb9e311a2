package service

import (
	"context"
	"errors"

	"agora/internal/access"
	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/validation"
)

// CommentInput is the writable part of a comment. Post is only read on
// create; a comment cannot move between posts.
type CommentInput struct {
	Content *string `json:"content"`
	Post    *uint   `json:"post"`
}

type CommentService struct {
	repo     repository.CommentRepository
	posts    repository.PostRepository
	policies ContentPolicies
}

func NewCommentService(repo repository.CommentRepository, posts repository.PostRepository, policies ContentPolicies) *CommentService {
	return &CommentService{repo: repo, posts: posts, policies: policies}
}

func (s *CommentService) Get(ctx context.Context, id uint) (*models.Comment, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all comments, or one post's comments when postID is non-zero.
func (s *CommentService) List(ctx context.Context, postID uint, page ListParams) ([]*models.Comment, error) {
	if postID == 0 {
		return s.repo.List(ctx, page.Limit, page.Offset)
	}
	if _, err := s.posts.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}
	return s.repo.ListByPost(ctx, postID, page.Limit, page.Offset)
}

func (s *CommentService) Create(ctx context.Context, req access.Request, in CommentInput) (*models.Comment, error) {
	if err := s.policies.Write.Check(req); err != nil {
		return nil, err
	}

	errs := validation.FieldErrors{}
	content, err := cleanCommentContent(in.Content, false)
	errs.AddErr("content", err)
	if in.Post == nil || *in.Post == 0 {
		errs.Add("post", fieldRequired)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if _, err := s.posts.GetByID(ctx, *in.Post, 0); err != nil {
		return nil, err
	}

	comment := &models.Comment{Content: content, UserID: req.UserID, PostID: *in.Post}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, comment.ID)
}

func (s *CommentService) Update(ctx context.Context, req access.Request, id uint, in CommentInput, partial bool) (*models.Comment, error) {
	if err := s.policies.Write.Check(req); err != nil {
		return nil, err
	}
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policies.Write.CheckObject(req, comment); err != nil {
		return nil, err
	}
	if in.Content == nil && partial {
		return comment, nil
	}
	content, err := cleanCommentContent(in.Content, partial)
	if err != nil {
		return nil, models.NewFieldValidationError(map[string][]string{"content": {err.Error()}})
	}
	comment.Content = content
	if err := s.repo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Delete(ctx context.Context, req access.Request, id uint) error {
	if err := s.policies.Delete.Check(req); err != nil {
		return err
	}
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policies.Delete.CheckObject(req, comment); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

var errFieldRequired = errors.New(fieldRequired)

func cleanCommentContent(content *string, partial bool) (string, error) {
	if content == nil {
		if partial {
			return "", nil
		}
		return "", errFieldRequired
	}
	return validation.CleanCommentContent(*content)
}
