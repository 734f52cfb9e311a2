package service

import (
	"context"

	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FollowService drives the per-pair follow state machine:
// not-following -> following on Follow, and back on Unfollow.
type FollowService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

func NewFollowService(users repository.UserRepository, follows repository.FollowRepository) *FollowService {
	return &FollowService{users: users, follows: follows}
}

func (s *FollowService) Follow(ctx context.Context, followerID, targetID uint) (*models.User, error) {
	return s.transition(ctx, "follow", followerID, targetID, "You cannot follow yourself.", s.follows.Follow)
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID uint) (*models.User, error) {
	return s.transition(ctx, "unfollow", followerID, targetID, "You cannot unfollow yourself.", s.follows.Unfollow)
}

func (s *FollowService) transition(
	ctx context.Context,
	action string,
	followerID, targetID uint,
	selfMsg string,
	apply func(ctx context.Context, followerID, followingID uint) error,
) (*models.User, error) {
	span, ctx := observability.NewSpan(ctx, "follow."+action,
		attribute.Int64("follower.id", int64(followerID)),
		attribute.Int64("target.id", int64(targetID)),
	)
	defer span.End()

	err := s.checkTransition(ctx, followerID, targetID, selfMsg)
	if err == nil {
		err = apply(ctx, followerID, targetID)
	}
	observability.RecordTransition(action, transitionOutcome(err))
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return s.users.GetByID(ctx, targetID)
}

func (s *FollowService) checkTransition(ctx context.Context, followerID, targetID uint, selfMsg string) error {
	if followerID == 0 {
		return models.NewUnauthorizedError("Authentication credentials were not provided")
	}
	if followerID == targetID {
		return models.NewValidationError(selfMsg)
	}
	_, err := s.users.GetByID(ctx, targetID)
	return err
}

// Followers lists users following userID.
func (s *FollowService) Followers(ctx context.Context, userID uint, page ListParams) ([]models.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.Followers(ctx, userID, page.Limit, page.Offset)
}

// Following lists users userID follows.
func (s *FollowService) Following(ctx context.Context, userID uint, page ListParams) ([]models.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.Following(ctx, userID, page.Limit, page.Offset)
}
