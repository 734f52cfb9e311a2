package service

import (
	"context"

	"agora/internal/access"
	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/validation"
)

// PostInput is the writable part of a post. A nil Tags leaves the post's
// tags unchanged; an empty list clears them.
type PostInput struct {
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

type PostService struct {
	repo     repository.PostRepository
	policies ContentPolicies
}

func NewPostService(repo repository.PostRepository, policies ContentPolicies) *PostService {
	return &PostService{repo: repo, policies: policies}
}

func (s *PostService) Get(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	return s.repo.GetByID(ctx, id, viewerID)
}

// List returns recent posts matching filter.
func (s *PostService) List(ctx context.Context, filter repository.PostFilter, page ListParams, viewerID uint) ([]*models.Post, error) {
	return s.repo.List(ctx, filter, page.Limit, page.Offset, viewerID)
}

// Feed returns posts by the users viewerID follows.
func (s *PostService) Feed(ctx context.Context, viewerID uint, page ListParams) ([]*models.Post, error) {
	if viewerID == 0 {
		return nil, models.NewUnauthorizedError("Authentication credentials were not provided")
	}
	return s.repo.Feed(ctx, viewerID, page.Limit, page.Offset)
}

func (s *PostService) Create(ctx context.Context, req access.Request, in PostInput) (*models.Post, error) {
	if err := s.policies.Write.Check(req); err != nil {
		return nil, err
	}
	content, tags, err := cleanPostInput(in, false)
	if err != nil {
		return nil, err
	}
	post := &models.Post{Content: content, UserID: req.UserID, Tags: tags}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, post.ID, req.UserID)
}

func (s *PostService) Update(ctx context.Context, req access.Request, id uint, in PostInput, partial bool) (*models.Post, error) {
	if err := s.policies.Write.Check(req); err != nil {
		return nil, err
	}
	post, err := s.repo.GetByID(ctx, id, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.policies.Write.CheckObject(req, post); err != nil {
		return nil, err
	}
	if in.Content == nil && in.Tags == nil && partial {
		return post, nil
	}
	content, tags, err := cleanPostInput(in, partial)
	if err != nil {
		return nil, err
	}
	if in.Content != nil {
		post.Content = content
	}
	post.Tags = tags
	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id, req.UserID)
}

func (s *PostService) Delete(ctx context.Context, req access.Request, id uint) error {
	if err := s.policies.Delete.Check(req); err != nil {
		return err
	}
	post, err := s.repo.GetByID(ctx, id, req.UserID)
	if err != nil {
		return err
	}
	if err := s.policies.Delete.CheckObject(req, post); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// cleanPostInput validates in. The returned tags are nil when the input
// carries no tags field.
func cleanPostInput(in PostInput, partial bool) (string, []models.Tag, error) {
	errs := validation.FieldErrors{}
	var content string
	if in.Content != nil {
		v, err := validation.CleanPostContent(*in.Content)
		errs.AddErr("content", err)
		content = v
	} else if !partial {
		errs.Add("content", fieldRequired)
	}
	var tags []models.Tag
	if in.Tags != nil {
		v, err := validation.CleanTags(*in.Tags)
		errs.AddErr("tags", err)
		tags = v
	}
	return content, tags, errs.Err()
}
