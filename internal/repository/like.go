package repository

import (
	"context"
	"time"

	"agora/internal/cache"
	"agora/internal/models"

	"gorm.io/gorm"
)

// LikeRepository records likes and the notification each new like produces.
type LikeRepository interface {
	Like(ctx context.Context, userID, postID uint) (*models.Notification, error)
	Unlike(ctx context.Context, userID, postID uint) error
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
}

type likeRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db, now: time.Now}
}

// Like stores the like and a "liked" notification for the post author in one
// transaction. The insert is guarded by idx_user_post, so of two concurrent
// identical requests exactly one writes rows and the other gets a state
// conflict.
func (r *likeRepository) Like(ctx context.Context, userID, postID uint) (*models.Notification, error) {
	var notification *models.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "user_id").First(&post, postID).Error; err != nil {
			return lookupError(err, "Post", postID)
		}

		now := r.now().UTC()
		res := tx.Exec(
			`INSERT INTO likes (user_id, post_id, created_at)
			 VALUES (?, ?, ?)
			 ON CONFLICT (user_id, post_id) DO NOTHING`,
			userID, postID, now,
		)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewStateConflictError("You have already liked this post.")
		}

		target := post.ID
		n := &models.Notification{
			RecipientID:  post.UserID,
			ActorID:      userID,
			Verb:         models.NotificationVerbLiked,
			TargetPostID: &target,
			CreatedAt:    now,
		}
		if err := tx.Omit("Actor").Create(n).Error; err != nil {
			return models.NewInternalError(err)
		}
		notification = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidatePost(ctx, postID)
	return notification, nil
}

// Unlike deletes the like. The notification it produced stays.
func (r *likeRepository) Unlike(ctx context.Context, userID, postID uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return models.NewInternalError(err)
	}
	if count == 0 {
		return models.NewNotFoundError("Post", postID)
	}

	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewStateConflictError("You have not liked this post.")
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (r *likeRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
