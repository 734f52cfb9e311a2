package models

import (
	"time"
)

// Follow is a directed edge from FollowerID to FollowingID.
// A follow from A to B says nothing about a follow from B to A.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follower_following;index" json:"follower_id"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follower_following;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`

	Follower  User `gorm:"foreignKey:FollowerID" json:"-"`
	Following User `gorm:"foreignKey:FollowingID" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
