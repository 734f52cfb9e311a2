package models

import (
	"time"
)

// Post represents a post in the Agora application.
type Post struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Content string `gorm:"type:text;not null" json:"content"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	Author  User   `gorm:"foreignKey:UserID" json:"author"`
	Tags    []Tag  `gorm:"many2many:post_tags" json:"tags"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool      `gorm:"->;-:migration" json:"liked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerID returns the ID of the post's author.
func (p *Post) OwnerID() uint {
	return p.UserID
}
