package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository reads notifications. Rows are only written by
// LikeRepository.Like.
type NotificationRepository interface {
	ListForRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]*models.Notification, error)
	CountForRecipient(ctx context.Context, recipientID uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]*models.Notification, error) {
	var out []*models.Notification
	if err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *notificationRepository) CountForRecipient(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ?", recipientID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
