package models

import (
	"time"
)

// NotificationVerbLiked is recorded when a user likes a post.
const NotificationVerbLiked = "liked"

// Notification is a system-created record addressed to RecipientID.
// Rows are written once and never updated; TargetPostID is cleared when
// the post it points to is deleted.
type Notification struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RecipientID  uint      `gorm:"not null;index:idx_notifications_recipient_created" json:"recipient_id"`
	ActorID      uint      `gorm:"not null" json:"actor_id"`
	Verb         string    `gorm:"size:50;not null" json:"verb"`
	TargetPostID *uint     `gorm:"index" json:"target_post_id"`
	CreatedAt    time.Time `gorm:"index:idx_notifications_recipient_created" json:"created_at"`

	Actor User `gorm:"foreignKey:ActorID" json:"actor"`
}
