package service

import (
	"context"
	"errors"
	"log/slog"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// NotificationPublisher delivers a committed notification to realtime
// subscribers.
type NotificationPublisher interface {
	Publish(ctx context.Context, n *models.Notification) error
}

type LikeService struct {
	likes     repository.LikeRepository
	publisher NotificationPublisher
}

// NewLikeService creates a LikeService. publisher may be nil.
func NewLikeService(likes repository.LikeRepository, publisher NotificationPublisher) *LikeService {
	return &LikeService{likes: likes, publisher: publisher}
}

// Like records that userID likes postID and notifies the post author.
// Publishing happens after commit and its failure does not fail the like.
func (s *LikeService) Like(ctx context.Context, userID, postID uint) (*models.Notification, error) {
	span, ctx := observability.NewSpan(ctx, "like.create",
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("post.id", int64(postID)),
	)
	defer span.End()

	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication credentials were not provided")
	}

	n, err := s.likes.Like(ctx, userID, postID)
	observability.RecordTransition("like", transitionOutcome(err))
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	observability.NotificationsCreated.WithLabelValues(n.Verb).Inc()

	if s.publisher != nil {
		if pubErr := s.publisher.Publish(ctx, n); pubErr != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish notification",
				slog.Uint64("notification_id", uint64(n.ID)),
				slog.String("error", pubErr.Error()),
			)
		}
	}
	return n, nil
}

func (s *LikeService) Unlike(ctx context.Context, userID, postID uint) error {
	span, ctx := observability.NewSpan(ctx, "like.delete",
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("post.id", int64(postID)),
	)
	defer span.End()

	if userID == 0 {
		return models.NewUnauthorizedError("Authentication credentials were not provided")
	}

	err := s.likes.Unlike(ctx, userID, postID)
	observability.RecordTransition("unlike", transitionOutcome(err))
	if err != nil {
		span.SetError(err)
	}
	return err
}

// transitionOutcome labels a relation transition for metrics.
func transitionOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return models.CodeInternal
}
