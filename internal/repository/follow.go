package repository

import (
	"context"
	"time"

	"agora/internal/cache"
	"agora/internal/models"

	"gorm.io/gorm"
)

// FollowRepository stores the directed follow relation.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followingID uint) error
	Unfollow(ctx context.Context, followerID, followingID uint) error
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error)
	Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, error)
}

type followRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db, now: time.Now}
}

// Follow inserts the edge. A concurrent duplicate loses on the unique index
// and is reported as a state conflict.
func (r *followRepository) Follow(ctx context.Context, followerID, followingID uint) error {
	res := r.db.WithContext(ctx).Exec(
		`INSERT INTO follows (follower_id, following_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (follower_id, following_id) DO NOTHING`,
		followerID, followingID, r.now().UTC(),
	)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewStateConflictError("You are already following this user.")
	}
	cache.InvalidateUser(ctx, followerID, followingID)
	return nil
}

func (r *followRepository) Unfollow(ctx context.Context, followerID, followingID uint) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewStateConflictError("You are not following this user.")
	}
	cache.InvalidateUser(ctx, followerID, followingID)
	return nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Followers lists users following userID, most recent first.
func (r *followRepository) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return r.listEdge(ctx, "follows.follower_id", "follows.following_id", userID, limit, offset)
}

// Following lists users userID follows, most recent first.
func (r *followRepository) Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return r.listEdge(ctx, "follows.following_id", "follows.follower_id", userID, limit, offset)
}

func (r *followRepository) listEdge(ctx context.Context, joinCol, whereCol string, userID uint, limit, offset int) ([]models.User, error) {
	var users []models.User
	err := withFollowCounts(r.db.WithContext(ctx)).
		Joins("JOIN follows ON "+joinCol+" = users.id").
		Where(whereCol+" = ?", userID).
		Order("follows.created_at DESC, follows.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
