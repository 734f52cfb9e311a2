package service

import (
	"context"

	"agora/internal/models"
	"agora/internal/repository"
)

type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List returns the caller's own notifications, newest first.
func (s *NotificationService) List(ctx context.Context, recipientID uint, page ListParams) ([]*models.Notification, int64, error) {
	if recipientID == 0 {
		return nil, 0, models.NewUnauthorizedError("Authentication credentials were not provided")
	}
	items, err := s.repo.ListForRecipient(ctx, recipientID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForRecipient(ctx, recipientID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
