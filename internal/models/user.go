// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents an account in the Agora application.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Password     string     `gorm:"not null" json:"-"`
	Bio          string     `gorm:"size:500" json:"bio"`
	BirthDate    *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	ProfileImage string     `json:"profile_image"`
	IsAdmin      bool       `gorm:"default:false" json:"is_admin"`
	// FollowersCount is not persisted; computed at query time
	FollowersCount int `gorm:"->;-:migration" json:"followers_count"`
	// FollowingCount is not persisted; computed at query time
	FollowingCount int       `gorm:"->;-:migration" json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OwnerID returns the user's own ID; a profile is owned by the account itself.
func (u *User) OwnerID() uint {
	return u.ID
}
